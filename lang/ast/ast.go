// Package ast defines the syntax tree produced by the parser.
//
// Trees are immutable once built and each subtree is owned by exactly one
// parent. The binder and the evaluator both walk the same tree.
package ast

import "github.com/ardnew/lam/lang/token"

// Syntax is one of [*Name], [*Literal], [*Call], [*Closure] or [*Assignment].
type Syntax interface {
	// Span returns the source range covered by the node and its children.
	Span() token.Span
	syntax()
}

// Name references a bound identifier.
type Name struct {
	Node token.Node
}

// Literal is a number, string, boolean or none constant.
type Literal struct {
	Node token.Node
}

// Call applies Left to Right. Chains fold to the left: f x y is (f x) y.
type Call struct {
	Left, Right Syntax
}

// Closure is a single-parameter function whose parameter type is named by
// ParamType.
type Closure struct {
	Param     token.Node
	ParamType token.Node
	Body      Syntax
}

// Assignment binds Expr to Name in the current scope. Annotation, when
// non-nil, names the declared type of Name.
type Assignment struct {
	Name       token.Node
	Annotation *token.Node
	Expr       Syntax
}

func (n *Name) Span() token.Span    { return n.Node.Span }
func (n *Literal) Span() token.Span { return n.Node.Span }
func (n *Call) Span() token.Span    { return n.Left.Span().Cover(n.Right.Span()) }
func (n *Closure) Span() token.Span { return n.Param.Span.Cover(n.Body.Span()) }

func (n *Assignment) Span() token.Span { return n.Name.Span.Cover(n.Expr.Span()) }

func (*Name) syntax()       {}
func (*Literal) syntax()    {}
func (*Call) syntax()       {}
func (*Closure) syntax()    {}
func (*Assignment) syntax() {}

// Inspect traverses s in depth-first order, calling fn for each node. If fn
// returns false, the children of that node are skipped.
func Inspect(s Syntax, fn func(Syntax) bool) {
	if s == nil || !fn(s) {
		return
	}

	switch n := s.(type) {
	case *Call:
		Inspect(n.Left, fn)
		Inspect(n.Right, fn)
	case *Closure:
		Inspect(n.Body, fn)
	case *Assignment:
		Inspect(n.Expr, fn)
	}
}

// Names returns the identifiers referenced by s in source order, excluding
// closure parameters and assignment targets.
func Names(s Syntax) []string {
	var names []string

	Inspect(s, func(n Syntax) bool {
		if name, ok := n.(*Name); ok {
			names = append(names, name.Node.Text)
		}

		return true
	})

	return names
}
