package value_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/lam/lang/value"
)

func TestString(t *testing.T) {
	tests := []struct {
		val  value.Value
		want string
	}{
		{value.Number(42), "42"},
		{value.String("hi there"), "hi there"},
		{value.Boolean(true), "true"},
		{value.Boolean(false), "false"},
		{value.None{}, "[None]"},
		{&value.Closure{Param: "x"}, "[Closure]"},
		{&value.Builtin{Name: "inc"}, "[Closure]"},
	}

	for _, tt := range tests {
		if got := tt.val.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestCallable(t *testing.T) {
	if value.Callable(value.Number(1)) {
		t.Errorf("expected number not callable")
	}

	if !value.Callable(&value.Closure{}) || !value.Callable(&value.Builtin{}) {
		t.Errorf("expected closure and builtin callable")
	}
}

func TestCurry(t *testing.T) {
	var calls [][]value.Value

	sum := value.Curry("sum3", 3, func(_ context.Context, args []value.Value) (value.Value, error) {
		calls = append(calls, args)

		var n value.Number
		for _, a := range args {
			n += a.(value.Number)
		}

		return n, nil
	})

	ctx := t.Context()

	partial, err := sum.Fn(ctx, value.Number(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two independent continuations of the same partial application.
	a, _ := partial.(*value.Builtin).Fn(ctx, value.Number(10))
	b, _ := partial.(*value.Builtin).Fn(ctx, value.Number(20))

	x, _ := a.(*value.Builtin).Fn(ctx, value.Number(100))
	y, _ := b.(*value.Builtin).Fn(ctx, value.Number(200))

	if x != value.Number(111) || y != value.Number(221) {
		t.Errorf("expected 111 and 221, got %v and %v", x, y)
	}

	want := [][]value.Value{
		{value.Number(1), value.Number(10), value.Number(100)},
		{value.Number(1), value.Number(20), value.Number(200)},
	}

	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("unexpected argument lists (-want +got):\n%s", diff)
	}
}

func TestGo(t *testing.T) {
	if got := value.Go(value.Number(7)); got != uint64(7) {
		t.Errorf("expected 7, got %v", got)
	}

	if got := value.Go(value.String("s")); got != "s" {
		t.Errorf("expected s, got %v", got)
	}

	if got := value.Go(&value.Closure{}); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
