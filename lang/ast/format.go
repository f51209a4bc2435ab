package ast

import (
	"fmt"
	"io"
	"strings"

	"github.com/ardnew/lam/lang/token"
)

// String returns the canonical source text of s.
func String(s Syntax) string {
	var sb strings.Builder

	write(&sb, s)

	return sb.String()
}

// Format writes the canonical source text of s followed by a newline.
func Format(w io.Writer, s Syntax) error {
	_, err := fmt.Fprintln(w, String(s))

	return err
}

func write(sb *strings.Builder, s Syntax) {
	switch n := s.(type) {
	case *Name:
		sb.WriteString(n.Node.Text)
	case *Literal:
		sb.WriteString(n.Node.Text)
	case *Call:
		operand(sb, n.Left, false)
		sb.WriteByte(' ')
		operand(sb, n.Right, true)
	case *Closure:
		sb.WriteString(n.Param.Text)
		sb.WriteString(`\: `)
		sb.WriteString(n.ParamType.Text)
		sb.WriteByte(' ')
		write(sb, n.Body)
	case *Assignment:
		sb.WriteString(n.Name.Text)

		if n.Annotation != nil {
			sb.WriteString(" : ")
			sb.WriteString(n.Annotation.Text)
		}

		sb.WriteString(" = ")
		write(sb, n.Expr)
	}
}

// operand writes a call operand, parenthesizing statements that would
// otherwise absorb the rest of the chain.
func operand(sb *strings.Builder, s Syntax, right bool) {
	var wrap bool

	switch s.(type) {
	case *Closure, *Assignment:
		wrap = true
	case *Call:
		wrap = right
	}

	if wrap {
		sb.WriteByte('(')
		write(sb, s)
		sb.WriteByte(')')

		return
	}

	write(sb, s)
}

// Encode returns a tree of maps and slices describing s, suitable for JSON
// or YAML marshaling.
func Encode(s Syntax) map[string]any {
	switch n := s.(type) {
	case *Name:
		return leaf("name", n.Node)
	case *Literal:
		m := leaf("literal", n.Node)
		m["token"] = n.Node.Kind.String()

		return m
	case *Call:
		return map[string]any{
			"kind":  "call",
			"span":  n.Span().String(),
			"left":  Encode(n.Left),
			"right": Encode(n.Right),
		}
	case *Closure:
		return map[string]any{
			"kind":  "closure",
			"span":  n.Span().String(),
			"param": n.Param.Text,
			"type":  n.ParamType.Text,
			"body":  Encode(n.Body),
		}
	case *Assignment:
		m := map[string]any{
			"kind": "assignment",
			"span": n.Span().String(),
			"name": n.Name.Text,
			"expr": Encode(n.Expr),
		}

		if n.Annotation != nil {
			m["type"] = n.Annotation.Text
		}

		return m
	default:
		return nil
	}
}

func leaf(kind string, n token.Node) map[string]any {
	return map[string]any{
		"kind": kind,
		"span": n.Span.String(),
		"text": n.Text,
	}
}

// Dump writes an indented outline of s, one node per line.
func Dump(w io.Writer, s Syntax) error {
	var sb strings.Builder

	dump(&sb, s, 0)

	_, err := io.WriteString(w, sb.String())

	return err
}

func dump(sb *strings.Builder, s Syntax, depth int) {
	indent := strings.Repeat("  ", depth)

	switch n := s.(type) {
	case *Name:
		fmt.Fprintf(sb, "%sName %s [%s]\n", indent, n.Node.Text, n.Span())
	case *Literal:
		fmt.Fprintf(sb, "%sLiteral %s %s [%s]\n", indent, n.Node.Kind, n.Node.Text, n.Span())
	case *Call:
		fmt.Fprintf(sb, "%sCall [%s]\n", indent, n.Span())
		dump(sb, n.Left, depth+1)
		dump(sb, n.Right, depth+1)
	case *Closure:
		fmt.Fprintf(sb, "%sClosure %s : %s [%s]\n", indent, n.Param.Text, n.ParamType.Text, n.Span())
		dump(sb, n.Body, depth+1)
	case *Assignment:
		if n.Annotation != nil {
			fmt.Fprintf(sb, "%sAssignment %s : %s [%s]\n", indent, n.Name.Text, n.Annotation.Text, n.Span())
		} else {
			fmt.Fprintf(sb, "%sAssignment %s [%s]\n", indent, n.Name.Text, n.Span())
		}

		dump(sb, n.Expr, depth+1)
	}
}
