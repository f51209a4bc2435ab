// Package token defines the lexical units shared by the lexer and parser.
package token

import (
	"log/slog"
	"strconv"
)

// Kind identifies the class of a lexical unit.
type Kind int

const (
	Unknown Kind = iota
	Identifier
	Number
	String
	Boolean
	None
	Lambda
	Equals
	Colon
	OpenParen
	CloseParen
	Space
	EndOfFile
)

var kindName = [...]string{
	Unknown:    "Unknown",
	Identifier: "Identifier",
	Number:     "Number",
	String:     "String",
	Boolean:    "Boolean",
	None:       "None",
	Lambda:     "Lambda",
	Equals:     "Equals",
	Colon:      "Colon",
	OpenParen:  "OpenParen",
	CloseParen: "CloseParen",
	Space:      "Space",
	EndOfFile:  "EndOfFile",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindName) {
		return kindName[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsLiteral reports whether k denotes a literal value.
func (k Kind) IsLiteral() bool {
	switch k {
	case Number, String, Boolean, None:
		return true
	default:
		return false
	}
}

// Span locates a lexical unit as a byte offset and byte length into the
// source text.
type Span struct {
	Offset int `json:"offset" yaml:"offset"`
	Length int `json:"length" yaml:"length"`
}

// End returns the offset one past the last byte of s.
func (s Span) End() int { return s.Offset + s.Length }

// Cover returns the smallest span containing both s and t.
func (s Span) Cover(t Span) Span {
	start := min(s.Offset, t.Offset)

	return Span{Offset: start, Length: max(s.End(), t.End()) - start}
}

func (s Span) String() string {
	return strconv.Itoa(s.Offset) + ".." + strconv.Itoa(s.End())
}

// Node pairs a token kind with its location. Text holds the covered source
// text so that a node remains meaningful after its source is discarded.
type Node struct {
	Kind Kind   `json:"kind" yaml:"kind"`
	Span Span   `json:"span" yaml:"span"`
	Text string `json:"text" yaml:"text"`
}

// Make returns a node of kind k covering src[offset:offset+length].
func Make(src string, k Kind, offset, length int) Node {
	return Node{Kind: k, Span: Span{Offset: offset, Length: length}, Text: src[offset : offset+length]}
}

// LogValue implements slog.LogValuer.
func (n Node) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", n.Kind.String()),
		slog.String("span", n.Span.String()),
		slog.String("text", n.Text),
	)
}
