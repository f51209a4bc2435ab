// Package library supplies the names a session starts with: the core
// modules, the primitive type definitions and user extensions.
package library

import (
	"log/slog"

	"github.com/ardnew/lam/lang/scope"
	"github.com/ardnew/lam/lang/types"
	"github.com/ardnew/lam/lang/value"
	"github.com/ardnew/lam/pkg"
)

// Library errors.
var (
	ErrUnderflow    = pkg.NewError("arithmetic underflow")
	ErrOverflow     = pkg.NewError("arithmetic overflow")
	ErrDivideByZero = pkg.NewError("division by zero")
	ErrArgument     = pkg.NewError("invalid argument")
	ErrExtension    = pkg.NewError("invalid extension")
	ErrDuplicate    = pkg.NewError("duplicate module")
)

// Module is a named, typed value declared in the global scope.
type Module struct {
	Name  string
	Type  types.Type
	Value value.Value
}

// Primitive is a named type definition, usable in parameter annotations.
type Primitive struct {
	Name string
	Type types.Type
}

// Core returns the core modules.
func Core() []Module {
	binary := types.Curried(types.Number, types.Number, types.Number)

	return []Module{
		{"inc", types.Closure(types.Number, types.Number), unary("inc", inc)},
		{"dec", types.Closure(types.Number, types.Number), unary("dec", dec)},
		{"add", binary, numeric("add", add)},
		{"sub", binary, numeric("sub", sub)},
		{"mul", binary, numeric("mul", mul)},
		{"div", binary, numeric("div", div)},
		{"cat", types.Curried(types.String, types.String, types.String), value.Curry("cat", 2, cat)},
	}
}

// Primitives returns the primitive type definitions.
func Primitives() []Primitive {
	return []Primitive{
		{"String", types.String},
		{"Number", types.Number},
		{"Boolean", types.Boolean},
	}
}

// Register defines prims and declares and binds mods in the global frame
// of c. A module name that is already declared fails with [ErrDuplicate];
// modules registered before it remain.
func Register(c *scope.Chain, mods []Module, prims []Primitive) error {
	for _, p := range prims {
		c.Define(scope.Global, p.Name, p.Type)
	}

	for _, m := range mods {
		if !c.Declare(scope.Global, m.Name, m.Type) {
			return ErrDuplicate.With(slog.String("name", m.Name))
		}

		c.Bind(scope.Global, m.Name, m.Value)
	}

	return nil
}
