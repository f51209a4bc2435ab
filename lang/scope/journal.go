package scope

import (
	"github.com/ardnew/lam/lang/types"
	"github.com/ardnew/lam/lang/value"
)

type namespace uint8

const (
	nsTypes namespace = iota
	nsDefs
	nsValues
)

// undo restores one binding of a frame that predates the checkpoint.
type undo struct {
	at    int
	ns    namespace
	name  string
	had   bool
	typ   types.Type
	value value.Value
}

type journal struct {
	frames int
	undos  []undo
}

// Checkpoint starts recording changes so that they can be discarded by
// [Chain.Rollback]. Checkpoints do not nest; a new checkpoint replaces an
// open one.
func (c *Chain) Checkpoint() { c.journal = &journal{frames: len(c.frames)} }

// Commit keeps every change since the open checkpoint and stops recording.
func (c *Chain) Commit() { c.journal = nil }

// Rollback discards the frames pushed and the bindings written since the
// open checkpoint, then stops recording. It reports false if no checkpoint
// is open.
func (c *Chain) Rollback() bool {
	j := c.journal
	if j == nil {
		return false
	}

	c.journal = nil

	for i := len(j.undos) - 1; i >= 0; i-- {
		u := j.undos[i]
		f := &c.frames[u.at]

		switch u.ns {
		case nsTypes:
			restore(f.types, u.name, u.typ, u.had)
		case nsDefs:
			restore(f.defs, u.name, u.typ, u.had)
		case nsValues:
			restore(f.values, u.name, u.value, u.had)
		}
	}

	clear(c.frames[j.frames:])
	c.frames = c.frames[:j.frames]

	return true
}

func restore[T any](m map[string]T, name string, v T, had bool) {
	if had {
		m[name] = v
	} else {
		delete(m, name)
	}
}

// record saves the current binding of name before it is overwritten.
// Frames pushed after the checkpoint are discarded wholesale and need no
// record.
func (c *Chain) record(at int, ns namespace, name string) {
	j := c.journal
	if j == nil || at >= j.frames {
		return
	}

	u := undo{at: at, ns: ns, name: name}
	f := &c.frames[at]

	switch ns {
	case nsTypes:
		u.typ, u.had = f.types[name]
	case nsDefs:
		u.typ, u.had = f.defs[name]
	case nsValues:
		u.value, u.had = f.values[name]
	}

	j.undos = append(j.undos, u)
}
