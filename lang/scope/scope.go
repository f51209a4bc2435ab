// Package scope implements the scope chain shared by the binder and the
// evaluator.
//
// A [Chain] is an arena of binding frames addressed by index. Each frame
// links to its parent by index rather than by reference, and index
// [Global] is the root of every chain. Frames are only ever appended; the
// one exception is [Chain.Rollback], which discards frames and bindings
// recorded after a [Chain.Checkpoint].
//
// Every frame has three namespaces:
//
//   - declared value types, written by the binder
//   - type definitions, consulted only for parameter annotations
//   - runtime values, written by the evaluator
//
// Resolution in any namespace walks from the given frame through its
// parents and the first match wins.
package scope

import (
	"iter"
	"maps"
	"slices"

	"github.com/ardnew/lam/lang/types"
	"github.com/ardnew/lam/lang/value"
)

const (
	// Global is the index of the root frame.
	Global = 0
	// NoParent is the parent index of the root frame.
	NoParent = -1
)

type frame struct {
	parent int
	types  map[string]types.Type
	defs   map[string]types.Type
	values map[string]value.Value
}

// Chain is an arena of frames. It is not safe for concurrent use.
type Chain struct {
	frames  []frame
	journal *journal
}

// Binding is a name paired with its declared type.
type Binding struct {
	Name string
	Type types.Type
}

// New returns a chain holding only the empty global frame.
func New() *Chain {
	c := &Chain{}
	c.frames = append(c.frames, newFrame(NoParent))

	return c
}

func newFrame(parent int) frame {
	return frame{
		parent: parent,
		types:  make(map[string]types.Type),
		defs:   make(map[string]types.Type),
		values: make(map[string]value.Value),
	}
}

// Len returns the number of frames in the chain.
func (c *Chain) Len() int { return len(c.frames) }

// Valid reports whether at addresses a frame of c.
func (c *Chain) Valid(at int) bool { return at >= 0 && at < len(c.frames) }

// Parent returns the parent index of the frame at. ok is false for the
// root frame and for invalid indices.
func (c *Chain) Parent(at int) (parent int, ok bool) {
	if !c.Valid(at) || c.frames[at].parent == NoParent {
		return NoParent, false
	}

	return c.frames[at].parent, true
}

// Push appends a new empty frame whose parent is at and returns its index.
// An invalid parent yields a new root.
func (c *Chain) Push(parent int) int {
	if !c.Valid(parent) {
		parent = NoParent
	}

	c.frames = append(c.frames, newFrame(parent))

	return len(c.frames) - 1
}

// Declare records the type of name in the frame at. It fails, leaving the
// frame unchanged, when name is already declared in that same frame.
func (c *Chain) Declare(at int, name string, t types.Type) bool {
	if !c.Valid(at) {
		return false
	}

	f := &c.frames[at]
	if _, exists := f.types[name]; exists {
		return false
	}

	c.record(at, nsTypes, name)
	f.types[name] = t

	return true
}

// DeclaredLocal returns the type of name declared in the frame at itself,
// ignoring its parents.
func (c *Chain) DeclaredLocal(at int, name string) (types.Type, bool) {
	if !c.Valid(at) {
		return types.None, false
	}

	t, ok := c.frames[at].types[name]

	return t, ok
}

// LookupType resolves the declared type of name starting at frame at.
func (c *Chain) LookupType(at int, name string) (types.Type, bool) {
	return lookup(c, at, func(f *frame) (types.Type, bool) {
		t, ok := f.types[name]

		return t, ok
	})
}

// Define records a type definition in the frame at, replacing any
// previous definition of name in that frame.
func (c *Chain) Define(at int, name string, t types.Type) {
	if !c.Valid(at) {
		return
	}

	c.record(at, nsDefs, name)
	c.frames[at].defs[name] = t
}

// LookupDefinition resolves the type definition name starting at frame at.
func (c *Chain) LookupDefinition(at int, name string) (types.Type, bool) {
	return lookup(c, at, func(f *frame) (types.Type, bool) {
		t, ok := f.defs[name]

		return t, ok
	})
}

// Bind sets the runtime value of name in the frame at, overwriting any
// previous value in that frame.
func (c *Chain) Bind(at int, name string, v value.Value) {
	if !c.Valid(at) {
		return
	}

	c.record(at, nsValues, name)
	c.frames[at].values[name] = v
}

// LookupValue resolves the runtime value of name starting at frame at.
func (c *Chain) LookupValue(at int, name string) (value.Value, bool) {
	return lookup(c, at, func(f *frame) (value.Value, bool) {
		v, ok := f.values[name]

		return v, ok
	})
}

// Declared iterates the declared names of the frame at in sorted order.
func (c *Chain) Declared(at int) iter.Seq[Binding] {
	return c.bindings(at, func(f *frame) map[string]types.Type { return f.types })
}

// Definitions iterates the type definitions of the frame at in sorted order.
func (c *Chain) Definitions(at int) iter.Seq[Binding] {
	return c.bindings(at, func(f *frame) map[string]types.Type { return f.defs })
}

func (c *Chain) bindings(
	at int,
	ns func(*frame) map[string]types.Type,
) iter.Seq[Binding] {
	return func(yield func(Binding) bool) {
		if !c.Valid(at) {
			return
		}

		m := ns(&c.frames[at])
		for _, name := range slices.Sorted(maps.Keys(m)) {
			if !yield(Binding{Name: name, Type: m[name]}) {
				return
			}
		}
	}
}

func lookup[T any](c *Chain, at int, get func(*frame) (T, bool)) (T, bool) {
	for i, ok := at, c.Valid(at); ok; i, ok = c.Parent(i) {
		if v, found := get(&c.frames[i]); found {
			return v, true
		}
	}

	var zero T

	return zero, false
}
