// Package lexer converts source text into a sequence of token nodes.
//
// At each position the lexer tries a fixed, ordered set of rules. Each rule
// measures the longest run it recognizes without consuming anything; the
// first rule reporting a non-empty run commits a token covering it. When no
// rule matches, exactly one rune is emitted as [token.Unknown] and an
// UnknownToken diagnostic is reported, so lexing always terminates.
package lexer

import (
	"context"
	"iter"
	"log/slog"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/lam/lang/diag"
	"github.com/ardnew/lam/lang/token"
	"github.com/ardnew/lam/log"
)

// Reserved spellings claimed by the boolean and none rules.
const (
	KeywordTrue  = "true"
	KeywordFalse = "false"
	KeywordNone  = "none"
)

// Runes that lex as a [token.Lambda].
const (
	LambdaSymbol = '\\'
	LambdaGreek  = 'λ'
	LambdaArrow  = '→'
)

// rule measures the byte length of the token of kind it recognizes at the
// start of s, or 0 if it does not apply.
type rule struct {
	kind token.Kind
	scan func(s string) int
}

// rules are tried in this order at every position.
var rules = [...]rule{
	{token.Identifier, scanIdentifier},
	{token.Space, scanSpace},
	{token.Number, scanNumber},
	{token.String, scanString},
	{token.Boolean, scanKeyword(KeywordTrue, KeywordFalse)},
	{token.Lambda, scanLambda},
	{token.OpenParen, scanSymbol('(')},
	{token.CloseParen, scanSymbol(')')},
	{token.Colon, scanSymbol(':')},
	{token.Equals, scanSymbol('=')},
	{token.None, scanKeyword(KeywordNone)},
}

// Lexer scans a single source text.
type Lexer struct {
	src    string
	pos    int
	diags  *diag.Collector
	logger log.Logger
	ctx    context.Context
}

// Option configures a [Lexer].
type Option func(*Lexer)

// WithDiagnostics directs UnknownToken reports to c.
func WithDiagnostics(c *diag.Collector) Option {
	return func(l *Lexer) { l.diags = c }
}

// WithLogger sets the logger used for trace output.
func WithLogger(logger log.Logger) Option {
	return func(l *Lexer) { l.logger = logger }
}

// WithContext sets the context attached to trace output.
func WithContext(ctx context.Context) Option {
	return func(l *Lexer) { l.ctx = ctx }
}

// New returns a lexer positioned at the start of src.
func New(src string, opts ...Option) *Lexer {
	l := &Lexer{src: src, diags: new(diag.Collector), logger: log.Discard()}

	for _, opt := range opts {
		opt(l)
	}

	if l.ctx == nil {
		l.ctx = log.DefaultContextProvider()
	}

	return l
}

// Next scans the next token. ok is false once the source is exhausted.
func (l *Lexer) Next() (node token.Node, ok bool) {
	if l.pos >= len(l.src) {
		return token.Node{}, false
	}

	rest := l.src[l.pos:]

	for _, r := range rules {
		if n := r.scan(rest); n > 0 {
			return l.commit(r.kind, n), true
		}
	}

	_, size := utf8.DecodeRuneInString(rest)
	node = l.commit(token.Unknown, size)

	l.diags.Report(diag.Diagnostic{
		Kind: diag.UnknownToken,
		Span: node.Span,
		Name: node.Text,
	})

	return node, true
}

func (l *Lexer) commit(kind token.Kind, n int) token.Node {
	node := token.Make(l.src, kind, l.pos, n)
	l.pos += n

	l.logger.TraceContext(l.ctx, "lex", slog.Any("token", node))

	return node
}

// All iterates over every remaining token, including [token.Space].
func (l *Lexer) All() iter.Seq[token.Node] {
	return func(yield func(token.Node) bool) {
		for {
			node, ok := l.Next()
			if !ok || !yield(node) {
				return
			}
		}
	}
}

// Tokenize returns every token of src, including [token.Space]. The spans of
// the result cover src exactly and contiguously.
func Tokenize(src string, opts ...Option) []token.Node {
	var nodes []token.Node

	for node := range New(src, opts...).All() {
		nodes = append(nodes, node)
	}

	return nodes
}

// Significant returns nodes without [token.Space] entries.
func Significant(nodes []token.Node) []token.Node {
	out := make([]token.Node, 0, len(nodes))

	for _, n := range nodes {
		if n.Kind != token.Space {
			out = append(out, n)
		}
	}

	return out
}

func isLetter(r rune) bool { return r != LambdaGreek && unicode.IsLetter(r) }

func isLambda(r rune) bool {
	return r == LambdaSymbol || r == LambdaGreek || r == LambdaArrow
}

// span returns the byte length of the longest prefix of s whose runes all
// satisfy pred.
func span(s string, pred func(rune) bool) int {
	for i, r := range s {
		if !pred(r) {
			return i
		}
	}

	return len(s)
}

func scanIdentifier(s string) int {
	first, size := utf8.DecodeRuneInString(s)
	if !isLetter(first) {
		return 0
	}

	n := size + span(s[size:], func(r rune) bool {
		return isLetter(r) || unicode.IsDigit(r)
	})

	switch s[:n] {
	case KeywordTrue, KeywordFalse, KeywordNone:
		return 0
	}

	return n
}

func scanSpace(s string) int { return span(s, unicode.IsSpace) }

func scanNumber(s string) int { return span(s, unicode.IsDigit) }

func scanString(s string) int {
	if s == "" || s[0] != '"' {
		return 0
	}

	n := 1 + span(s[1:], func(r rune) bool { return r != '"' && r != '\n' })
	if n < len(s) && s[n] == '"' {
		n++
	}

	return n
}

func scanKeyword(words ...string) func(string) int {
	return func(s string) int {
		n := span(s, isLetter)

		for _, w := range words {
			if s[:n] == w {
				return n
			}
		}

		return 0
	}
}

func scanLambda(s string) int {
	r, size := utf8.DecodeRuneInString(s)
	if isLambda(r) {
		return size
	}

	return 0
}

func scanSymbol(c byte) func(string) int {
	return func(s string) int {
		if s != "" && s[0] == c {
			return 1
		}

		return 0
	}
}
