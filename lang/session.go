package lang

import (
	"context"
	"log/slog"
	"slices"

	"github.com/ardnew/lam/lang/ast"
	"github.com/ardnew/lam/lang/binder"
	"github.com/ardnew/lam/lang/diag"
	"github.com/ardnew/lam/lang/eval"
	"github.com/ardnew/lam/lang/library"
	"github.com/ardnew/lam/lang/parser"
	"github.com/ardnew/lam/lang/scope"
	"github.com/ardnew/lam/lang/types"
	"github.com/ardnew/lam/lang/value"
	"github.com/ardnew/lam/log"
)

// Session owns a scope chain and runs statements against its global scope.
// It is not safe for concurrent use.
type Session struct {
	chain      *scope.Chain
	logger     log.Logger
	extensions []library.Extension
	atomic     bool
	cache      bool
	maxDepth   int
	transcript []string
}

// Result describes one statement run by [Session.Run].
//
// Value is nil unless the statement was accepted: it parsed and bound
// without diagnostics and evaluated without a fatal error.
type Result struct {
	Source      string
	Syntax      ast.Syntax
	Type        types.Type
	Value       value.Value
	Diagnostics []diag.Diagnostic
}

// Accepted reports whether the statement was evaluated.
func (r Result) Accepted() bool { return r.Value != nil }

// NewSession returns a session whose global scope holds the primitive type
// definitions, the core modules and any extensions.
func NewSession(ctx context.Context, opts ...Option) (*Session, error) {
	s := &Session{
		logger:   log.Discard(),
		cache:    true,
		maxDepth: parser.DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(s)
	}

	ext, err := library.CompileAll(s.extensions...)
	if err != nil {
		return nil, err
	}

	s.chain = scope.New()

	err = library.Register(s.chain, append(library.Core(), ext...), library.Primitives())
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "session",
		slog.Int("extensions", len(ext)),
		slog.Bool("atomic", s.atomic),
		slog.Bool("cache", s.cache),
	)

	return s, nil
}

// Parse parses src as one statement.
func (s *Session) Parse(ctx context.Context, src string) (ast.Syntax, []diag.Diagnostic, error) {
	opts := []parser.Option{
		parser.WithLogger(s.logger),
		parser.WithContext(ctx),
		parser.WithMaxDepth(s.maxDepth),
	}

	var (
		root  ast.Syntax
		diags []diag.Diagnostic
		err   error
	)

	if s.cache {
		root, diags, err = parseCached(ctx, s.logger, src, s.maxDepth, opts...)
	} else {
		root, diags, err = parser.Parse(src, opts...)
	}

	if err == nil {
		s.logger.TraceContext(ctx, "references", slog.Any("names", ast.Names(root)))
	}

	return root, diags, err
}

// Bind types root against the global scope, declaring any names it
// assigns.
func (s *Session) Bind(ctx context.Context, root ast.Syntax) (types.Type, []diag.Diagnostic) {
	return binder.Bind(s.chain, root, scope.Global,
		binder.WithLogger(s.logger),
		binder.WithContext(ctx),
	)
}

// Eval evaluates root in the global scope.
func (s *Session) Eval(ctx context.Context, root ast.Syntax) (value.Value, error) {
	return eval.Eval(ctx, s.chain, root, scope.Global, eval.WithLogger(s.logger))
}

// Run parses, binds and evaluates one statement. A stage runs only if the
// stages before it produced no diagnostics. The error is non-nil only for
// fatal failures; diagnostics are reported in the result.
//
// In atomic mode a statement that is not accepted leaves the scope chain
// as it was.
func (s *Session) Run(ctx context.Context, src string) (res Result, err error) {
	res = Result{Source: src, Type: types.None}

	if s.atomic {
		s.chain.Checkpoint()

		defer func() {
			if res.Accepted() {
				s.chain.Commit()
			} else {
				s.chain.Rollback()
			}
		}()
	}

	res.Syntax, res.Diagnostics, err = s.Parse(ctx, src)
	if err != nil || len(res.Diagnostics) != 0 {
		return res, err
	}

	res.Type, res.Diagnostics = s.Bind(ctx, res.Syntax)
	if len(res.Diagnostics) != 0 {
		return res, nil
	}

	res.Value, err = s.Eval(ctx, res.Syntax)
	if err != nil {
		s.logger.DebugContext(ctx, "fatal", slog.String("source", src), slog.Any("error", err))

		return res, err
	}

	s.transcript = append(s.transcript, src)

	s.logger.TraceContext(ctx, "run",
		slog.String("source", src),
		slog.String("type", res.Type.String()),
		slog.String("value", res.Value.String()),
		slog.Int("scopes", s.chain.Len()),
	)

	return res, nil
}

// Lookup returns the declared type and value of a global name. The value
// is nil if the name was declared by a statement that was never evaluated.
func (s *Session) Lookup(name string) (types.Type, value.Value, bool) {
	t, ok := s.chain.DeclaredLocal(scope.Global, name)
	if !ok {
		return types.None, nil, false
	}

	v, _ := s.chain.LookupValue(scope.Global, name)

	return t, v, true
}

// Names returns the global names with their types, sorted by name.
func (s *Session) Names() []scope.Binding {
	return slices.Collect(s.chain.Declared(scope.Global))
}

// Definitions returns the global type definitions, sorted by name.
func (s *Session) Definitions() []scope.Binding {
	return slices.Collect(s.chain.Definitions(scope.Global))
}

// Scopes returns the number of frames in the scope chain. Frames are never
// reclaimed, so it grows with every closure bound and every invocation.
func (s *Session) Scopes() int { return s.chain.Len() }

// Transcript returns the accepted statements in the order they ran.
// Running them in a new session with the same options rebuilds the same
// global scope.
func (s *Session) Transcript() []string { return slices.Clone(s.transcript) }
