// Package diag reports recoverable syntax and type problems.
//
// A [Diagnostic] never aborts the pass that produced it. Passes append to an
// explicit [Collector], and the caller drains it once per top-level statement.
package diag

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ardnew/lam/lang/token"
	"github.com/ardnew/lam/lang/types"
)

// Kind identifies the problem a [Diagnostic] describes.
type Kind int

const (
	UnknownToken Kind = iota
	UnexpectedToken
	UnknownName
	UnexpectedType
	Reassignment
	BadCall
	MismatchedTypeAssignment
)

var kindName = [...]string{
	UnknownToken:             "UnknownToken",
	UnexpectedToken:          "UnexpectedToken",
	UnknownName:              "UnknownName",
	UnexpectedType:           "UnexpectedType",
	Reassignment:             "Reassignment",
	BadCall:                  "BadCall",
	MismatchedTypeAssignment: "MismatchedTypeAssignment",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindName) {
		return kindName[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Category groups diagnostic kinds by the pass that reports them.
type Category int

const (
	Syntax Category = iota
	Type
)

func (c Category) String() string {
	if c == Syntax {
		return "Syntax"
	}

	return "Type"
}

// Category returns the category of k.
func (k Kind) Category() Category {
	switch k {
	case UnknownToken, UnexpectedToken:
		return Syntax
	default:
		return Type
	}
}

// Diagnostic is a structured report tied to a source span.
//
// Only the fields relevant to Kind are set: Name for UnknownToken (the
// offending text), UnknownName, Reassignment and MismatchedTypeAssignment;
// Expected/Found tokens for UnexpectedToken; Expected/Found types for
// UnexpectedType and MismatchedTypeAssignment.
type Diagnostic struct {
	Kind          Kind
	Span          token.Span
	Name          string
	ExpectedToken token.Kind
	FoundToken    token.Kind
	ExpectedType  types.Type
	FoundType     types.Type
}

// Category returns the category of d.
func (d Diagnostic) Category() Category { return d.Kind.Category() }

// Message returns the human-readable description of d without location.
func (d Diagnostic) Message() string {
	switch d.Kind {
	case UnknownToken:
		return "Unknown token " + d.Name
	case UnexpectedToken:
		return fmt.Sprintf("Unexpected token %s, expected %s", d.FoundToken, d.ExpectedToken)
	case UnknownName:
		return fmt.Sprintf("Unknown name %q", d.Name)
	case UnexpectedType:
		return fmt.Sprintf("Unexpected type %s, expected a %s", d.FoundType, d.ExpectedType)
	case Reassignment:
		return fmt.Sprintf("Cannot reassign name %q", d.Name)
	case BadCall:
		return "Cannot call a non-closure value"
	case MismatchedTypeAssignment:
		return fmt.Sprintf(
			"Tried to assign expression of type %s to name %q, which is of type %s",
			d.FoundType, d.Name, d.ExpectedType,
		)
	default:
		return d.Kind.String()
	}
}

// String renders d as "<Category> Error: <message>" followed by an indented
// range line.
func (d Diagnostic) String() string {
	return d.Category().String() + " Error: " + d.Message() +
		"\n    at range " + d.Span.String()
}

// Error implements the error interface so diagnostics can be joined and
// logged alongside errors.
func (d Diagnostic) Error() string { return d.String() }

// LogValue implements slog.LogValuer.
func (d Diagnostic) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", d.Kind.String()),
		slog.String("category", d.Category().String()),
		slog.String("message", d.Message()),
		slog.Int("start", d.Span.Offset),
		slog.Int("end", d.Span.End()),
	)
}

// Collector accumulates diagnostics in report order.
// The zero value is ready to use.
type Collector struct {
	items []Diagnostic
}

// Report appends d.
func (c *Collector) Report(d Diagnostic) { c.items = append(c.items, d) }

// Len returns the number of pending diagnostics.
func (c *Collector) Len() int { return len(c.items) }

// Drain returns all pending diagnostics and empties c.
func (c *Collector) Drain() []Diagnostic {
	items := c.items
	c.items = nil

	return items
}
