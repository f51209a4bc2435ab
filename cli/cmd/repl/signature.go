package repl

import (
	"strings"

	"github.com/ardnew/lam/lang"
	"github.com/ardnew/lam/lang/lexer"
	"github.com/ardnew/lam/lang/token"
	"github.com/ardnew/lam/lang/types"
)

// application describes the call the cursor is in: the name at its head
// and the operand being typed.
type application struct {
	name     string
	argIndex int // -1 while the head itself is being typed
	ok       bool
}

// group tracks one parenthesized call, or the whole statement, while
// scanning tokens left to right.
type group struct {
	name    string
	hasHead bool
	args    int
}

// operand records one complete operand in g.
func (g *group) operand(name string) {
	if !g.hasHead {
		g.name, g.hasHead = name, true

		return
	}

	g.args++
}

// detectApplication finds the innermost call enclosing the cursor.
//
// The head of a call is its first operand. Assignment targets and closure
// headers ("x =", "x \: T", "x : T →") are not operands: the call starts
// after them. Only calls whose head is a name are reported.
func detectApplication(input string, cursor int) application {
	cursor = min(max(cursor, 0), len(input))
	prefix := input[:cursor]

	stack := []group{{}}
	skipType := false

	for _, tok := range lexer.Significant(lexer.Tokenize(prefix)) {
		top := &stack[len(stack)-1]

		switch tok.Kind {
		case token.OpenParen:
			stack = append(stack, group{})
		case token.CloseParen:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
				stack[len(stack)-1].operand("")
			}
		case token.Equals, token.Lambda:
			*top = group{}
		case token.Colon:
			*top = group{}
			skipType = true
		case token.Identifier:
			if skipType {
				skipType = false

				continue
			}

			top.operand(tok.Text)
		default:
			if tok.Kind.IsLiteral() {
				top.operand("")
			}
		}
	}

	g := stack[len(stack)-1]
	if g.name == "" {
		return application{}
	}

	// Still typing the last operand unless a space follows it.
	typing := prefix != "" && !strings.ContainsAny(prefix[len(prefix)-1:], " \t(")

	argIndex := g.args
	if typing {
		argIndex--
	}

	return application{name: g.name, argIndex: argIndex, ok: true}
}

// signature splits the type of a global name into its curried parameters
// and final result.
func signature(s *lang.Session, name string) (params []types.Type, ret types.Type, ok bool) {
	t, _, ok := s.Lookup(name)
	if !ok {
		return nil, types.None, false
	}

	for {
		param, next, isClosure := t.Signature()
		if !isClosure {
			return params, t, true
		}

		params = append(params, param)
		t = next
	}
}

// renderSignatureHint renders "name : P1 -> P2 -> R" with the parameter at
// argIndex highlighted.
func renderSignatureHint(
	name string,
	params []types.Type,
	ret types.Type,
	argIndex int,
) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureSeparatorStyle.Render(" : "))

	for i, p := range params {
		text := p.String()
		if p.IsClosure() {
			text = "(" + text + ")"
		}

		if i == argIndex {
			b.WriteString(currentParamStyle.Render(text))
		} else {
			b.WriteString(signatureStyle.Render(text))
		}

		b.WriteString(signatureSeparatorStyle.Render(" -> "))
	}

	text := ret.String()

	if argIndex >= len(params) && len(params) > 0 {
		// Applied to more operands than it takes.
		b.WriteString(errorStyle.Render(text))
	} else {
		b.WriteString(signatureStyle.Render(text))
	}

	return b.String()
}
