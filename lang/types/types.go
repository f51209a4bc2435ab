// Package types defines the static type lattice checked by the binder.
//
// Types are compared structurally: two closure types are equal when their
// parameter and return types are equal.
package types

import "strings"

// Kind identifies the variant of a [Type].
type Kind int

const (
	KindNone Kind = iota
	KindNumber
	KindString
	KindBoolean
	KindClosure
)

// Type is an immutable static type. The zero value is None.
type Type struct {
	kind  Kind
	param *Type
	ret   *Type
}

// Predeclared scalar types.
var (
	None    = Type{kind: KindNone}
	Number  = Type{kind: KindNumber}
	String  = Type{kind: KindString}
	Boolean = Type{kind: KindBoolean}
)

// Closure returns the type of a closure from param to ret.
func Closure(param, ret Type) Type {
	return Type{kind: KindClosure, param: &param, ret: &ret}
}

// Curried returns the type of a closure taking each of params in turn and
// finally producing ret. With no params it returns ret.
func Curried(ret Type, params ...Type) Type {
	for i := len(params) - 1; i >= 0; i-- {
		ret = Closure(params[i], ret)
	}

	return ret
}

// Kind returns the variant of t.
func (t Type) Kind() Kind { return t.kind }

// IsClosure reports whether t is a closure type.
func (t Type) IsClosure() bool { return t.kind == KindClosure }

// Signature returns the parameter and return types of a closure type.
// ok is false if t is not a closure.
func (t Type) Signature() (param, ret Type, ok bool) {
	if t.kind != KindClosure {
		return None, None, false
	}

	return *t.param, *t.ret, true
}

// Equal reports whether t and u are structurally identical.
func (t Type) Equal(u Type) bool {
	if t.kind != u.kind {
		return false
	}

	if t.kind != KindClosure {
		return true
	}

	return t.param.Equal(*u.param) && t.ret.Equal(*u.ret)
}

// String renders t with right-associative arrows, for example
// "Number -> Number -> Number" or "(Number -> Number) -> Number".
func (t Type) String() string {
	var sb strings.Builder

	t.write(&sb)

	return sb.String()
}

func (t Type) write(sb *strings.Builder) {
	switch t.kind {
	case KindNumber:
		sb.WriteString("Number")
	case KindString:
		sb.WriteString("String")
	case KindBoolean:
		sb.WriteString("Boolean")
	case KindClosure:
		if t.param.IsClosure() {
			sb.WriteByte('(')
			t.param.write(sb)
			sb.WriteByte(')')
		} else {
			t.param.write(sb)
		}

		sb.WriteString(" -> ")
		t.ret.write(sb)
	default:
		sb.WriteString("None")
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
