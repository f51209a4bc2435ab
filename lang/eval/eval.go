// Package eval evaluates syntax trees against a scope chain.
//
// Evaluation is eager and call-by-value. It assumes the tree was bound
// without diagnostics; the conditions a successful bind rules out surface
// here as fatal errors rather than diagnostics.
package eval

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/lam/lang/ast"
	"github.com/ardnew/lam/lang/scope"
	"github.com/ardnew/lam/lang/token"
	"github.com/ardnew/lam/lang/value"
	"github.com/ardnew/lam/log"
	"github.com/ardnew/lam/pkg"
)

// Fatal evaluation errors.
var (
	ErrUnboundName = pkg.NewError("unbound name")
	ErrNotCallable = pkg.NewError("value is not callable")
	ErrBadLiteral  = pkg.NewError("invalid literal")
	ErrUnknownNode = pkg.NewError("unknown syntax node")
	ErrCanceled    = pkg.NewError("evaluation canceled")
)

// Evaluator computes values, binding assigned names and pushing one frame
// per closure invocation.
type Evaluator struct {
	chain  *scope.Chain
	logger log.Logger
}

// Option configures an [Evaluator].
type Option func(*Evaluator)

// WithLogger sets the logger used for trace output.
func WithLogger(logger log.Logger) Option {
	return func(e *Evaluator) { e.logger = logger }
}

// New returns an evaluator over chain.
func New(chain *scope.Chain, opts ...Option) *Evaluator {
	e := &Evaluator{chain: chain, logger: log.Discard()}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Eval evaluates root in the frame at.
func Eval(
	ctx context.Context,
	chain *scope.Chain,
	root ast.Syntax,
	at int,
	opts ...Option,
) (value.Value, error) {
	return New(chain, opts...).Eval(ctx, root, at)
}

// Eval evaluates s in the frame at.
func (e *Evaluator) Eval(ctx context.Context, s ast.Syntax, at int) (value.Value, error) {
	switch n := s.(type) {
	case *ast.Name:
		v, ok := e.chain.LookupValue(at, n.Node.Text)
		if !ok {
			return nil, ErrUnboundName.With(
				slog.String("name", n.Node.Text),
				slog.String("span", n.Node.Span.String()),
			)
		}

		return v, nil

	case *ast.Literal:
		return Literal(n.Node)

	case *ast.Closure:
		return &value.Closure{Scope: at, Param: n.Param.Text, Body: n.Body}, nil

	case *ast.Call:
		fn, err := e.Eval(ctx, n.Left, at)
		if err != nil {
			return nil, err
		}

		if !value.Callable(fn) {
			return nil, ErrNotCallable.With(
				slog.String("value", fn.String()),
				slog.String("span", n.Left.Span().String()),
			)
		}

		arg, err := e.Eval(ctx, n.Right, at)
		if err != nil {
			return nil, err
		}

		return e.Apply(ctx, fn, arg)

	case *ast.Assignment:
		v, err := e.Eval(ctx, n.Expr, at)
		if err != nil {
			return nil, err
		}

		e.chain.Bind(at, n.Name.Text, v)

		return value.None{}, nil

	default:
		return nil, ErrUnknownNode.With(slog.Any("node", s))
	}
}

// Apply invokes fn with arg. A closure runs in a new frame whose parent is
// its defining frame, so no invocation observes another's parameter.
func (e *Evaluator) Apply(ctx context.Context, fn, arg value.Value) (value.Value, error) {
	if err := context.Cause(ctx); err != nil {
		return nil, ErrCanceled.Wrap(err)
	}

	switch fn := fn.(type) {
	case *value.Builtin:
		e.logger.TraceContext(ctx, "apply builtin",
			slog.String("name", fn.Name),
			slog.String("arg", arg.String()),
		)

		return fn.Fn(ctx, arg)

	case *value.Closure:
		frame := e.chain.Push(fn.Scope)
		e.chain.Bind(frame, fn.Param, arg)

		e.logger.TraceContext(ctx, "apply closure",
			slog.Int("scope", frame),
			slog.Int("parent", fn.Scope),
			slog.String("param", fn.Param),
			slog.String("arg", arg.String()),
		)

		return e.Eval(ctx, fn.Body, frame)

	default:
		return nil, ErrNotCallable.With(slog.String("value", fn.String()))
	}
}

// Literal decodes the value of a literal token. Strings lose whichever
// enclosing quotes are present; an unterminated string keeps its text.
func Literal(n token.Node) (value.Value, error) {
	switch n.Kind {
	case token.Number:
		u, err := strconv.ParseUint(n.Text, 10, 64)
		if err != nil {
			return nil, ErrBadLiteral.Wrap(err).With(
				slog.String("text", n.Text),
				slog.String("span", n.Span.String()),
			)
		}

		return value.Number(u), nil

	case token.String:
		s := strings.TrimPrefix(n.Text, `"`)
		s = strings.TrimSuffix(s, `"`)

		return value.String(s), nil

	case token.Boolean:
		switch n.Text {
		case "true":
			return value.Boolean(true), nil
		case "false":
			return value.Boolean(false), nil
		}

	case token.None:
		return value.None{}, nil
	}

	return nil, ErrBadLiteral.With(
		slog.String("kind", n.Kind.String()),
		slog.String("text", n.Text),
		slog.String("span", n.Span.String()),
	)
}
