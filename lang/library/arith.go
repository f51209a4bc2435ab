package library

import (
	"context"
	"log/slog"
	"math"
	"math/bits"

	"github.com/ardnew/lam/lang/value"
	"github.com/ardnew/lam/pkg"
)

func number(name string, v value.Value) (uint64, error) {
	n, ok := v.(value.Number)
	if !ok {
		return 0, ErrArgument.With(
			slog.String("module", name),
			slog.String("expected", "Number"),
			slog.String("value", v.String()),
		)
	}

	return uint64(n), nil
}

func unary(name string, fn func(uint64) (uint64, error)) *value.Builtin {
	return &value.Builtin{
		Name: name,
		Fn: func(_ context.Context, v value.Value) (value.Value, error) {
			n, err := number(name, v)
			if err != nil {
				return nil, err
			}

			r, err := fn(n)
			if err != nil {
				return nil, err
			}

			return value.Number(r), nil
		},
	}
}

func numeric(name string, fn func(a, b uint64) (uint64, *pkg.Error)) *value.Builtin {
	return value.Curry(name, 2, func(_ context.Context, args []value.Value) (value.Value, error) {
		a, err := number(name, args[0])
		if err != nil {
			return nil, err
		}

		b, err := number(name, args[1])
		if err != nil {
			return nil, err
		}

		r, failed := fn(a, b)
		if failed != nil {
			return nil, failed.With(
				slog.String("module", name),
				slog.Uint64("lhs", a),
				slog.Uint64("rhs", b),
			)
		}

		return value.Number(r), nil
	})
}

func inc(n uint64) (uint64, error) {
	if n == math.MaxUint64 {
		return 0, ErrOverflow.With(slog.String("module", "inc"))
	}

	return n + 1, nil
}

func dec(n uint64) (uint64, error) {
	if n == 0 {
		return 0, ErrUnderflow.With(slog.String("module", "dec"))
	}

	return n - 1, nil
}

func add(a, b uint64) (uint64, *pkg.Error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}

	return sum, nil
}

func sub(a, b uint64) (uint64, *pkg.Error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrUnderflow
	}

	return diff, nil
}

func mul(a, b uint64) (uint64, *pkg.Error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}

	return lo, nil
}

func div(a, b uint64) (uint64, *pkg.Error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}

	return a / b, nil
}

func cat(_ context.Context, args []value.Value) (value.Value, error) {
	var out string

	for _, a := range args {
		s, ok := a.(value.String)
		if !ok {
			return nil, ErrArgument.With(
				slog.String("module", "cat"),
				slog.String("expected", "String"),
				slog.String("value", a.String()),
			)
		}

		out += string(s)
	}

	return value.String(out), nil
}
