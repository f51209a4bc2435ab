// Package binder assigns a static type to every node of a syntax tree.
//
// Binding never fails: problems are reported as type diagnostics and the
// offending node types as None so that the walk can continue. Binding
// declares assigned names and pushes one frame for each closure it visits.
package binder

import (
	"context"
	"log/slog"

	"github.com/ardnew/lam/lang/ast"
	"github.com/ardnew/lam/lang/diag"
	"github.com/ardnew/lam/lang/scope"
	"github.com/ardnew/lam/lang/token"
	"github.com/ardnew/lam/lang/types"
	"github.com/ardnew/lam/log"
)

// Binder types trees against a scope chain.
type Binder struct {
	chain  *scope.Chain
	diags  *diag.Collector
	logger log.Logger
	ctx    context.Context
}

// Option configures a [Binder].
type Option func(*Binder)

// WithDiagnostics directs type diagnostics to c.
func WithDiagnostics(c *diag.Collector) Option {
	return func(b *Binder) { b.diags = c }
}

// WithLogger sets the logger used for trace output.
func WithLogger(logger log.Logger) Option {
	return func(b *Binder) { b.logger = logger }
}

// WithContext sets the context attached to trace output.
func WithContext(ctx context.Context) Option {
	return func(b *Binder) { b.ctx = ctx }
}

// New returns a binder that declares names in chain.
func New(chain *scope.Chain, opts ...Option) *Binder {
	b := &Binder{
		chain:  chain,
		diags:  new(diag.Collector),
		logger: log.Discard(),
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.ctx == nil {
		b.ctx = log.DefaultContextProvider()
	}

	return b
}

// Bind types root in the frame at and returns the diagnostics it produced.
func Bind(
	chain *scope.Chain,
	root ast.Syntax,
	at int,
	opts ...Option,
) (types.Type, []diag.Diagnostic) {
	var c diag.Collector

	t := New(chain, append(opts, WithDiagnostics(&c))...).Bind(root, at)

	return t, c.Drain()
}

// Bind returns the type of s in the frame at.
func (b *Binder) Bind(s ast.Syntax, at int) types.Type {
	t := b.bind(s, at)

	b.logger.TraceContext(b.ctx, "bind",
		slog.String("syntax", ast.String(s)),
		slog.String("type", t.String()),
		slog.Int("scope", at),
	)

	return t
}

func (b *Binder) bind(s ast.Syntax, at int) types.Type {
	switch n := s.(type) {
	case *ast.Name:
		return b.name(n, at)
	case *ast.Literal:
		return literal(n.Node.Kind)
	case *ast.Call:
		return b.call(n, at)
	case *ast.Closure:
		return b.closure(n, at)
	case *ast.Assignment:
		return b.assignment(n, at)
	default:
		return types.None
	}
}

func literal(k token.Kind) types.Type {
	switch k {
	case token.Number:
		return types.Number
	case token.String:
		return types.String
	case token.Boolean:
		return types.Boolean
	default:
		return types.None
	}
}

func (b *Binder) name(n *ast.Name, at int) types.Type {
	t, ok := b.chain.LookupType(at, n.Node.Text)
	if !ok {
		b.diags.Report(diag.Diagnostic{
			Kind: diag.UnknownName,
			Span: n.Node.Span,
			Name: n.Node.Text,
		})

		return types.None
	}

	return t
}

// definition resolves a type annotation. Unknown names type as None.
func (b *Binder) definition(n token.Node, at int) (types.Type, bool) {
	t, ok := b.chain.LookupDefinition(at, n.Text)
	if !ok {
		b.diags.Report(diag.Diagnostic{
			Kind: diag.UnknownName,
			Span: n.Span,
			Name: n.Text,
		})

		return types.None, false
	}

	return t, true
}

func (b *Binder) call(n *ast.Call, at int) types.Type {
	left := b.bind(n.Left, at)
	right := b.bind(n.Right, at)

	param, ret, ok := left.Signature()
	if !ok {
		b.diags.Report(diag.Diagnostic{
			Kind: diag.BadCall,
			Span: n.Left.Span(),
		})

		return types.None
	}

	if !right.Equal(param) {
		b.diags.Report(diag.Diagnostic{
			Kind:         diag.UnexpectedType,
			Span:         n.Right.Span(),
			ExpectedType: param,
			FoundType:    right,
		})
	}

	return ret
}

func (b *Binder) closure(n *ast.Closure, at int) types.Type {
	param, _ := b.definition(n.ParamType, at)

	inner := b.chain.Push(at)
	b.chain.Declare(inner, n.Param.Text, param)

	b.logger.TraceContext(b.ctx, "push scope",
		slog.Int("scope", inner),
		slog.Int("parent", at),
		slog.String("param", n.Param.Text),
	)

	return types.Closure(param, b.bind(n.Body, inner))
}

func (b *Binder) assignment(n *ast.Assignment, at int) types.Type {
	t := b.bind(n.Expr, at)

	if n.Annotation != nil {
		if declared, ok := b.definition(*n.Annotation, at); ok {
			if !t.Equal(declared) {
				b.diags.Report(diag.Diagnostic{
					Kind:         diag.MismatchedTypeAssignment,
					Span:         n.Span(),
					Name:         n.Name.Text,
					ExpectedType: declared,
					FoundType:    t,
				})
			}

			t = declared
		}
	}

	if !b.chain.Declare(at, n.Name.Text, t) {
		b.diags.Report(diag.Diagnostic{
			Kind: diag.Reassignment,
			Span: n.Name.Span,
			Name: n.Name.Text,
		})
	}

	return types.None
}
