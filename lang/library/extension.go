package library

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/lam/lang/lexer"
	"github.com/ardnew/lam/lang/token"
	"github.com/ardnew/lam/lang/types"
	"github.com/ardnew/lam/lang/value"
	"github.com/ardnew/lam/pkg"
)

// Param is one parameter of an [Extension].
type Param struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Extension declares a module implemented by an expr-lang expression.
//
// The expression sees each parameter by name, Numbers as int, and must
// produce a value of the Result type. Numbers above [math.MaxInt] are
// rejected with [ErrOverflow], as are +, - and * results that leave the
// int range. A negative Number result is an [ErrUnderflow]. PATH-like
// lists can be edited with mung.prefix(list, items...) and
// mung.prefixif(list, keep, items...). A module of several parameters is
// curried like any other; one without parameters is a constant evaluated
// once at compile time.
//
// Extensions are usually read from YAML:
//
//	modules:
//	  - name: max
//	    params:
//	      - { name: a, type: Number }
//	      - { name: b, type: Number }
//	    result: Number
//	    expr: "a > b ? a : b"
type Extension struct {
	Name   string  `json:"name"   yaml:"name"`
	Params []Param `json:"params" yaml:"params"`
	Result string  `json:"result" yaml:"result"`
	Expr   string  `json:"expr"   yaml:"expr"`
}

type manifest struct {
	Modules []Extension `yaml:"modules"`
}

// DecodeExtensions reads a YAML extension manifest from r.
func DecodeExtensions(ctx context.Context, r io.Reader) ([]Extension, error) {
	var m manifest

	dec := yaml.NewDecoder(r, yaml.DisallowUnknownField())
	if err := dec.DecodeContext(ctx, &m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		return nil, ErrExtension.Wrap(err)
	}

	return m.Modules, nil
}

// ReadExtensions reads the YAML extension manifest at path.
func ReadExtensions(ctx context.Context, path string) ([]Extension, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrExtension.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	exts, err := DecodeExtensions(ctx, f)
	if err != nil {
		return nil, pkg.WrapError(err).With(slog.String("path", path))
	}

	return exts, nil
}

// Compile compiles the expression of x against its parameter types and
// returns the resulting module. Parameter and result types must name
// primitives.
func (x Extension) Compile() (Module, error) {
	fail := func(msg string, attrs ...slog.Attr) (Module, error) {
		return Module{}, ErrExtension.With(
			append([]slog.Attr{slog.String("module", x.Name), slog.String("reason", msg)}, attrs...)...,
		)
	}

	if !isIdentifier(x.Name) {
		return fail("name is not an identifier")
	}

	result, ok := primitive(x.Result)
	if !ok {
		return fail("unknown result type", slog.String("type", x.Result))
	}

	env := environ(new(bool))
	params := make([]types.Type, len(x.Params))

	for i, p := range x.Params {
		t, ok := primitive(p.Type)
		if !ok {
			return fail("unknown parameter type", slog.String("type", p.Type))
		}

		if _, dup := env[p.Name]; dup || p.Name == "" {
			return fail("invalid parameter name", slog.String("param", p.Name))
		}

		env[p.Name] = exemplar(t)
		params[i] = t
	}

	opts := append([]expr.Option{expr.Env(env), as(result)}, operators()...)

	program, err := expr.Compile(x.Expr, opts...)
	if err != nil {
		return Module{}, ErrExtension.Wrap(err).With(
			slog.String("module", x.Name),
			slog.String("expr", x.Expr),
		)
	}

	run := func(args []value.Value) (value.Value, error) {
		var wrapped bool

		vars := environ(&wrapped)

		for i, a := range args {
			v, err := toGo(x.Name, a)
			if err != nil {
				return nil, err
			}

			vars[x.Params[i].Name] = v
		}

		out, err := vm.Run(program, vars)
		if err != nil {
			return nil, ErrExtension.Wrap(err).With(slog.String("module", x.Name))
		}

		if wrapped {
			return nil, ErrOverflow.With(slog.String("module", x.Name))
		}

		return fromGo(x.Name, result, out)
	}

	mod := Module{Name: x.Name, Type: types.Curried(result, params...)}

	if len(params) == 0 {
		mod.Value, err = run(nil)

		return mod, err
	}

	mod.Value = value.Curry(x.Name, len(params), func(_ context.Context, args []value.Value) (value.Value, error) {
		return run(args)
	})

	return mod, nil
}

// CompileAll compiles each extension in order and stops at the first
// failure.
func CompileAll(exts ...Extension) ([]Module, error) {
	mods := make([]Module, 0, len(exts))

	for _, x := range exts {
		m, err := x.Compile()
		if err != nil {
			return nil, err
		}

		mods = append(mods, m)
	}

	return mods, nil
}

func isIdentifier(s string) bool {
	nodes := lexer.Tokenize(s)

	return len(nodes) == 1 && nodes[0].Kind == token.Identifier
}

func primitive(name string) (types.Type, bool) {
	for _, p := range Primitives() {
		if p.Name == name {
			return p.Type, true
		}
	}

	return types.None, false
}

func exemplar(t types.Type) any {
	switch t.Kind() {
	case types.KindNumber:
		return 0
	case types.KindString:
		return ""
	case types.KindBoolean:
		return false
	default:
		return nil
	}
}

func as(t types.Type) expr.Option {
	switch t.Kind() {
	case types.KindNumber:
		return expr.AsInt()
	case types.KindString:
		return expr.AsKind(reflect.String)
	case types.KindBoolean:
		return expr.AsBool()
	default:
		return expr.AsAny()
	}
}

func toGo(name string, v value.Value) (any, error) {
	if n, ok := v.(value.Number); ok {
		if uint64(n) > math.MaxInt {
			return nil, ErrOverflow.With(slog.String("module", name), slog.Uint64("value", uint64(n)))
		}

		return int(n), nil
	}

	if g := value.Go(v); g != nil {
		return g, nil
	}

	return nil, ErrArgument.With(slog.String("module", name), slog.String("value", v.String()))
}

func fromGo(name string, t types.Type, v any) (value.Value, error) {
	switch t.Kind() {
	case types.KindNumber:
		if n, ok := v.(int); ok {
			if n < 0 {
				return nil, ErrUnderflow.With(slog.String("module", name), slog.Int("value", n))
			}

			return value.Number(n), nil
		}
	case types.KindString:
		if s, ok := v.(string); ok {
			return value.String(s), nil
		}
	case types.KindBoolean:
		if b, ok := v.(bool); ok {
			return value.Boolean(b), nil
		}
	}

	return nil, ErrExtension.With(
		slog.String("module", name),
		slog.String("reason", "result type mismatch"),
		slog.Any("value", v),
	)
}
