// Package value defines the runtime values produced by the evaluator.
package value

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/ardnew/lam/lang/ast"
)

// Value is one of [Number], [String], [Boolean], [None], [*Closure] or
// [*Builtin].
type Value interface {
	// String renders the value for display.
	String() string
	value()
}

type (
	// Number is an unsigned integer.
	Number uint64
	// String is text with its quotes removed.
	String string
	// Boolean is true or false.
	Boolean bool
	// None carries no payload.
	None struct{}
)

// Closure is a user-defined function. It captures the index of the scope
// it was defined in, so invoking it never depends on the caller's scope.
// A Closure is immutable and may be shared by any number of bindings.
type Closure struct {
	Scope int
	Param string
	Body  ast.Syntax
}

// Func implements a [Builtin].
type Func func(ctx context.Context, arg Value) (Value, error)

// Builtin is a function implemented in Go. Functions of several parameters
// are curried: each application returns another Builtin until the last.
type Builtin struct {
	Name string
	Fn   Func
}

func (n Number) String() string  { return strconv.FormatUint(uint64(n), 10) }
func (s String) String() string  { return string(s) }
func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }
func (None) String() string      { return "[None]" }
func (*Closure) String() string  { return "[Closure]" }
func (*Builtin) String() string  { return "[Closure]" }

func (Number) value()   {}
func (String) value()   {}
func (Boolean) value()  {}
func (None) value()     {}
func (*Closure) value() {}
func (*Builtin) value() {}

// LogValue describes the closure without its body tree.
func (c *Closure) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("scope", c.Scope),
		slog.String("param", c.Param),
		slog.String("body", ast.String(c.Body)),
	)
}

// LogValue names the builtin.
func (b *Builtin) LogValue() slog.Value {
	return slog.GroupValue(slog.String("builtin", b.Name))
}

// Callable reports whether v can be applied to an argument.
func Callable(v Value) bool {
	switch v.(type) {
	case *Closure, *Builtin:
		return true
	default:
		return false
	}
}

// Curry returns a builtin that collects arity arguments, one per
// application, before passing them all to fn. Arity below 1 is treated as 1.
func Curry(name string, arity int, fn func(ctx context.Context, args []Value) (Value, error)) *Builtin {
	return curry(name, max(arity, 1), nil, fn)
}

func curry(
	name string,
	remaining int,
	args []Value,
	fn func(context.Context, []Value) (Value, error),
) *Builtin {
	return &Builtin{
		Name: name,
		Fn: func(ctx context.Context, arg Value) (Value, error) {
			next := make([]Value, len(args), len(args)+1)
			copy(next, args)
			next = append(next, arg)

			if remaining == 1 {
				return fn(ctx, next)
			}

			return curry(name, remaining-1, next, fn), nil
		},
	}
}

// Go converts v to a plain Go value: uint64, string, bool or nil. Callable
// values have no Go form and convert to nil.
func Go(v Value) any {
	switch v := v.(type) {
	case Number:
		return uint64(v)
	case String:
		return string(v)
	case Boolean:
		return bool(v)
	default:
		return nil
	}
}
