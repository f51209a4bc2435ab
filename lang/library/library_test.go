package library_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/lam/lang/library"
	"github.com/ardnew/lam/lang/scope"
	"github.com/ardnew/lam/lang/types"
	"github.com/ardnew/lam/lang/value"
)

func module(t *testing.T, mods []library.Module, name string) library.Module {
	t.Helper()

	for _, m := range mods {
		if m.Name == name {
			return m
		}
	}

	t.Fatalf("module %q not found", name)

	return library.Module{}
}

// apply calls fn with each argument in turn.
func apply(ctx context.Context, fn value.Value, args ...value.Value) (value.Value, error) {
	for _, a := range args {
		b, ok := fn.(*value.Builtin)
		if !ok {
			return nil, errors.New("not a builtin: " + fn.String())
		}

		var err error
		if fn, err = b.Fn(ctx, a); err != nil {
			return nil, err
		}
	}

	return fn, nil
}

func TestCore(t *testing.T) {
	n := func(u uint64) value.Value { return value.Number(u) }

	tests := []struct {
		name    string
		args    []value.Value
		want    value.Value
		wantErr error
	}{
		{"inc", []value.Value{n(1)}, n(2), nil},
		{"inc", []value.Value{n(math.MaxUint64)}, nil, library.ErrOverflow},
		{"dec", []value.Value{n(1)}, n(0), nil},
		{"dec", []value.Value{n(0)}, nil, library.ErrUnderflow},
		{"add", []value.Value{n(2), n(3)}, n(5), nil},
		{"add", []value.Value{n(math.MaxUint64), n(1)}, nil, library.ErrOverflow},
		{"sub", []value.Value{n(5), n(3)}, n(2), nil},
		{"sub", []value.Value{n(1), n(2)}, nil, library.ErrUnderflow},
		{"mul", []value.Value{n(6), n(7)}, n(42), nil},
		{"mul", []value.Value{n(math.MaxUint64), n(2)}, nil, library.ErrOverflow},
		{"div", []value.Value{n(7), n(2)}, n(3), nil},
		{"div", []value.Value{n(7), n(0)}, nil, library.ErrDivideByZero},
		{"cat", []value.Value{value.String("ab"), value.String("cd")}, value.String("abcd"), nil},
		{"cat", []value.Value{value.String("ab"), n(1)}, nil, library.ErrArgument},
		{"inc", []value.Value{value.String("x")}, nil, library.ErrArgument},
	}

	core := library.Core()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := apply(t.Context(), module(t, core, tt.name).Value, tt.args...)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCore_Types(t *testing.T) {
	core := library.Core()

	if got := module(t, core, "add").Type.String(); got != "Number -> Number -> Number" {
		t.Errorf("expected curried Number type, got %s", got)
	}

	if got := module(t, core, "cat").Type.String(); got != "String -> String -> String" {
		t.Errorf("expected curried String type, got %s", got)
	}
}

func TestRegister(t *testing.T) {
	c := scope.New()

	if err := library.Register(c, library.Core(), library.Primitives()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := c.LookupDefinition(scope.Global, "Boolean"); !ok {
		t.Errorf("expected Boolean definition")
	}

	if v, ok := c.LookupValue(scope.Global, "inc"); !ok || !value.Callable(v) {
		t.Errorf("expected callable inc, got %v", v)
	}

	err := library.Register(c, library.Core()[:1], nil)
	if !errors.Is(err, library.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestExtension_Compile(t *testing.T) {
	tests := []struct {
		name string
		ext  library.Extension
		args []value.Value
		typ  types.Type
		want value.Value
	}{
		{
			name: "binary number",
			ext: library.Extension{
				Name:   "max",
				Params: []library.Param{{"a", "Number"}, {"b", "Number"}},
				Result: "Number",
				Expr:   "a > b ? a : b",
			},
			args: []value.Value{value.Number(3), value.Number(9)},
			typ:  types.Curried(types.Number, types.Number, types.Number),
			want: value.Number(9),
		},
		{
			name: "string predicate",
			ext: library.Extension{
				Name:   "empty",
				Params: []library.Param{{"s", "String"}},
				Result: "Boolean",
				Expr:   `s == ""`,
			},
			args: []value.Value{value.String("")},
			typ:  types.Closure(types.String, types.Boolean),
			want: value.Boolean(true),
		},
		{
			name: "mixed parameters",
			ext: library.Extension{
				Name:   "repeat",
				Params: []library.Param{{"s", "String"}, {"n", "Number"}},
				Result: "String",
				Expr:   `repeat(s, n)`,
			},
			args: []value.Value{value.String("ab"), value.Number(3)},
			typ:  types.Curried(types.String, types.String, types.Number),
			want: value.String("ababab"),
		},
		{
			name: "constant",
			ext:  library.Extension{Name: "answer", Result: "Number", Expr: "6 * 7"},
			typ:  types.Number,
			want: value.Number(42),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.ext.Compile()
			if err != nil {
				t.Fatalf("compile: %v", err)
			}

			if !m.Type.Equal(tt.typ) {
				t.Errorf("expected type %s, got %s", tt.typ, m.Type)
			}

			got, err := apply(t.Context(), m.Value, tt.args...)
			if err != nil {
				t.Fatalf("apply: %v", err)
			}

			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestExtension_CompileErrors(t *testing.T) {
	tests := []struct {
		name string
		ext  library.Extension
	}{
		{"bad name", library.Extension{Name: "1x", Result: "Number", Expr: "1"}},
		{"unknown result", library.Extension{Name: "f", Result: "Float", Expr: "1"}},
		{"unknown param type", library.Extension{Name: "f", Params: []library.Param{{"a", "Any"}}, Result: "Number", Expr: "1"}},
		{"duplicate param", library.Extension{Name: "f", Params: []library.Param{{"a", "Number"}, {"a", "Number"}}, Result: "Number", Expr: "a"}},
		{"syntax", library.Extension{Name: "f", Result: "Number", Expr: "1 +"}},
		{"wrong result kind", library.Extension{Name: "f", Result: "Boolean", Expr: `"s"`}},
		{"unknown variable", library.Extension{Name: "f", Result: "Number", Expr: "x"}},
		{"reserved param", library.Extension{Name: "f", Params: []library.Param{{"mung", "String"}}, Result: "String", Expr: "mung"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.ext.Compile(); !errors.Is(err, library.ErrExtension) {
				t.Errorf("expected ErrExtension, got %v", err)
			}
		})
	}
}

func TestExtension_NegativeResult(t *testing.T) {
	m, err := library.Extension{
		Name:   "less",
		Params: []library.Param{{"a", "Number"}},
		Result: "Number",
		Expr:   "a - 10",
	}.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if _, err := apply(t.Context(), m.Value, value.Number(1)); !errors.Is(err, library.ErrUnderflow) {
		t.Errorf("expected ErrUnderflow, got %v", err)
	}
}

func TestExtension_Overflow(t *testing.T) {
	tests := []struct {
		name string
		expr string
		arg  uint64
	}{
		{"add", "a + 1", math.MaxInt},
		{"mul", "a * 4", math.MaxInt / 2},
		{"sub", "0 - a - a - 2", math.MaxInt},
		{"argument", "a", math.MaxInt + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := library.Extension{
				Name:   "f",
				Params: []library.Param{{"a", "Number"}},
				Result: "Number",
				Expr:   tt.expr,
			}.Compile()
			if err != nil {
				t.Fatalf("compile: %v", err)
			}

			if _, err := apply(t.Context(), m.Value, value.Number(tt.arg)); !errors.Is(err, library.ErrOverflow) {
				t.Errorf("expected ErrOverflow, got %v", err)
			}
		})
	}
}

func TestExtension_Arithmetic(t *testing.T) {
	m, err := library.Extension{
		Name:   "poly",
		Params: []library.Param{{"a", "Number"}},
		Result: "Number",
		Expr:   "a * a - 2 * a + 1",
	}.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	got, err := apply(t.Context(), m.Value, value.Number(5))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if got != value.Number(16) {
		t.Errorf("expected 16, got %v", got)
	}
}

func TestExtension_PathList(t *testing.T) {
	sep := string(os.PathListSeparator)

	m, err := library.Extension{
		Name:   "withbin",
		Params: []library.Param{{"path", "String"}},
		Result: "String",
		Expr:   `mung.prefix(path, "/opt/bin")`,
	}.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	got, err := apply(t.Context(), m.Value, value.String("/usr/bin"+sep+"/bin"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	want := value.String("/opt/bin" + sep + "/usr/bin" + sep + "/bin")
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

const manifest = `
modules:
  - name: max
    params:
      - { name: a, type: Number }
      - { name: b, type: Number }
    result: Number
    expr: "a > b ? a : b"
  - name: shout
    params:
      - { name: s, type: String }
    result: String
    expr: upper(s)
`

func TestDecodeExtensions(t *testing.T) {
	exts, err := library.DecodeExtensions(t.Context(), strings.NewReader(manifest))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(exts) != 2 || exts[0].Name != "max" || exts[1].Params[0].Type != "String" {
		t.Fatalf("unexpected extensions: %+v", exts)
	}

	mods, err := library.CompileAll(exts...)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	got, err := apply(t.Context(), mods[1].Value, value.String("hey"))
	if err != nil || got != value.String("HEY") {
		t.Errorf("expected HEY, got %v (%v)", got, err)
	}
}

func TestDecodeExtensions_Empty(t *testing.T) {
	exts, err := library.DecodeExtensions(t.Context(), strings.NewReader(""))
	if err != nil || len(exts) != 0 {
		t.Errorf("expected no extensions, got %v (%v)", exts, err)
	}
}

func TestDecodeExtensions_UnknownField(t *testing.T) {
	_, err := library.DecodeExtensions(t.Context(), strings.NewReader("modules:\n  - name: f\n    body: x\n"))
	if !errors.Is(err, library.ErrExtension) {
		t.Errorf("expected ErrExtension, got %v", err)
	}
}

func TestReadExtensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.yaml")
	if err := os.WriteFile(path, []byte(manifest), 0o600); err != nil {
		t.Fatal(err)
	}

	exts, err := library.ReadExtensions(t.Context(), path)
	if err != nil || len(exts) != 2 {
		t.Errorf("expected 2 extensions, got %d (%v)", len(exts), err)
	}

	_, err = library.ReadExtensions(t.Context(), filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, library.ErrExtension) {
		t.Errorf("expected ErrExtension, got %v", err)
	}
}
