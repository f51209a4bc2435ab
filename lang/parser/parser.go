// Package parser builds a syntax tree from a single statement.
//
// The grammar is
//
//	statement  := assignment | closure | call
//	assignment := Identifier [ Colon Identifier ] Equals statement
//	closure    := Identifier Lambda Colon Identifier statement
//	            | Identifier Colon Identifier Lambda statement
//	call       := primary { primary }
//	primary    := Identifier | literal | OpenParen statement CloseParen
//	literal    := Number | String | Boolean | None
//
// The production is chosen by peeking one token past the current one (two
// for the Colon forms). Tokens that a production merely expects are recovered
// from with an UnexpectedToken diagnostic and a synthetic node; tokens the
// dispatch already guarantees are asserted, and a failed assertion is a
// fatal error rather than a diagnostic.
package parser

import (
	"context"
	"log/slog"

	"github.com/ardnew/lam/lang/ast"
	"github.com/ardnew/lam/lang/diag"
	"github.com/ardnew/lam/lang/lexer"
	"github.com/ardnew/lam/lang/token"
	"github.com/ardnew/lam/log"
	"github.com/ardnew/lam/pkg"
)

// Fatal parse errors.
var (
	ErrAssert           = pkg.NewError("parser assertion failed")
	ErrMaxDepthExceeded = pkg.NewError("maximum nesting depth exceeded")
)

// DefaultMaxDepth bounds statement nesting.
const DefaultMaxDepth = 1024

// Parser consumes the significant tokens of one source text.
type Parser struct {
	src      string
	nodes    []token.Node
	pos      int
	depth    int
	maxDepth int
	diags    *diag.Collector
	logger   log.Logger
	ctx      context.Context
}

// Option configures a [Parser].
type Option func(*Parser)

// WithDiagnostics directs syntax diagnostics, including those of the
// underlying lexer, to c.
func WithDiagnostics(c *diag.Collector) Option {
	return func(p *Parser) { p.diags = c }
}

// WithLogger sets the logger used for trace output.
func WithLogger(logger log.Logger) Option {
	return func(p *Parser) { p.logger = logger }
}

// WithContext sets the context attached to trace output.
func WithContext(ctx context.Context) Option {
	return func(p *Parser) { p.ctx = ctx }
}

// WithMaxDepth bounds statement nesting. Values below 1 select
// [DefaultMaxDepth].
func WithMaxDepth(depth int) Option {
	return func(p *Parser) { p.maxDepth = depth }
}

// New tokenizes src and returns a parser positioned at its first
// significant token.
func New(src string, opts ...Option) *Parser {
	p := &Parser{
		src:      src,
		diags:    new(diag.Collector),
		logger:   log.Discard(),
		maxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.ctx == nil {
		p.ctx = log.DefaultContextProvider()
	}

	if p.maxDepth < 1 {
		p.maxDepth = DefaultMaxDepth
	}

	p.nodes = lexer.Significant(lexer.Tokenize(src,
		lexer.WithDiagnostics(p.diags),
		lexer.WithLogger(p.logger),
		lexer.WithContext(p.ctx),
	))

	return p
}

// Parse parses src as one statement and returns the tree with the syntax
// diagnostics it produced. err is non-nil only for fatal failures.
func Parse(src string, opts ...Option) (ast.Syntax, []diag.Diagnostic, error) {
	var c diag.Collector

	p := New(src, append(opts, WithDiagnostics(&c))...)
	root, err := p.Parse()

	return root, c.Drain(), err
}

// Parse parses one statement spanning the entire input. Tokens left after
// the statement are reported as UnexpectedToken.
func (p *Parser) Parse() (ast.Syntax, error) {
	root, err := p.statement()
	if err != nil {
		return root, err
	}

	if p.current() != token.EndOfFile {
		p.expect(token.EndOfFile)
	}

	p.logger.TraceContext(p.ctx, "parse",
		slog.String("canonical", ast.String(root)),
		slog.Int("tokens", len(p.nodes)),
		slog.Int("diagnostics", p.diags.Len()),
	)

	return root, nil
}

func (p *Parser) peek(ahead int) token.Kind {
	if i := p.pos + ahead; i < len(p.nodes) {
		return p.nodes[i].Kind
	}

	return token.EndOfFile
}

func (p *Parser) current() token.Kind { return p.peek(0) }

// offset returns the byte offset of the current token.
func (p *Parser) offset() int {
	if p.pos < len(p.nodes) {
		return p.nodes[p.pos].Span.Offset
	}

	return len(p.src)
}

// next consumes one token. Past the end it yields an EndOfFile node
// positioned at the end of the source.
func (p *Parser) next() token.Node {
	if p.pos < len(p.nodes) {
		p.pos++

		return p.nodes[p.pos-1]
	}

	return token.Node{
		Kind: token.EndOfFile,
		Span: token.Span{Offset: len(p.src)},
	}
}

// expect consumes one token. On a mismatch it reports UnexpectedToken and
// returns a node of the expected kind at the offending location.
func (p *Parser) expect(kind token.Kind) token.Node {
	node := p.next()
	if node.Kind == kind {
		return node
	}

	p.diags.Report(diag.Diagnostic{
		Kind:          diag.UnexpectedToken,
		Span:          node.Span,
		ExpectedToken: kind,
		FoundToken:    node.Kind,
	})

	node.Kind = kind

	return node
}

// assert consumes one token that the grammar guarantees to be of kind.
func (p *Parser) assert(kind token.Kind) (token.Node, error) {
	node := p.next()
	if node.Kind == kind {
		return node, nil
	}

	return node, ErrAssert.With(
		slog.String("expected", kind.String()),
		slog.String("found", node.Kind.String()),
		slog.Int("offset", node.Span.Offset),
	)
}

func (p *Parser) statement() (ast.Syntax, error) {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > p.maxDepth {
		return nil, ErrMaxDepthExceeded.With(
			slog.Int("max_depth", p.maxDepth),
			slog.Int("offset", p.offset()),
		)
	}

	switch p.peek(1) {
	case token.Equals:
		return p.assignment(false)

	case token.Lambda:
		return p.closure()

	case token.Colon:
		switch p.peek(3) {
		case token.Equals:
			return p.assignment(true)
		case token.Lambda:
			return p.arrowClosure()
		}
	}

	return p.call()
}

func (p *Parser) assignment(annotated bool) (ast.Syntax, error) {
	n := &ast.Assignment{Name: p.expect(token.Identifier)}

	if annotated {
		if _, err := p.assert(token.Colon); err != nil {
			return nil, err
		}

		typ := p.expect(token.Identifier)
		n.Annotation = &typ
	}

	if _, err := p.assert(token.Equals); err != nil {
		return nil, err
	}

	expr, err := p.statement()
	if err != nil {
		return nil, err
	}

	n.Expr = expr

	return n, nil
}

func (p *Parser) closure() (ast.Syntax, error) {
	n := &ast.Closure{Param: p.expect(token.Identifier)}

	if _, err := p.assert(token.Lambda); err != nil {
		return nil, err
	}

	p.expect(token.Colon)
	n.ParamType = p.expect(token.Identifier)

	body, err := p.statement()
	if err != nil {
		return nil, err
	}

	n.Body = body

	return n, nil
}

func (p *Parser) arrowClosure() (ast.Syntax, error) {
	n := &ast.Closure{Param: p.expect(token.Identifier)}

	if _, err := p.assert(token.Colon); err != nil {
		return nil, err
	}

	n.ParamType = p.expect(token.Identifier)

	if _, err := p.assert(token.Lambda); err != nil {
		return nil, err
	}

	body, err := p.statement()
	if err != nil {
		return nil, err
	}

	n.Body = body

	return n, nil
}

func (p *Parser) call() (ast.Syntax, error) {
	left, err := p.primary()
	if err != nil {
		return nil, err
	}

	for p.current() != token.EndOfFile && p.current() != token.CloseParen {
		right, err := p.primary()
		if err != nil {
			return nil, err
		}

		left = &ast.Call{Left: left, Right: right}
	}

	return left, nil
}

func (p *Parser) primary() (ast.Syntax, error) {
	switch kind := p.current(); {
	case kind == token.OpenParen:
		p.next()

		inner, err := p.statement()
		if err != nil {
			return nil, err
		}

		p.expect(token.CloseParen)

		return inner, nil

	case kind.IsLiteral():
		return &ast.Literal{Node: p.next()}, nil

	default:
		return &ast.Name{Node: p.expect(token.Identifier)}, nil
	}
}
