package lang_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/lam/lang"
	"github.com/ardnew/lam/lang/diag"
	"github.com/ardnew/lam/lang/eval"
	"github.com/ardnew/lam/lang/library"
	"github.com/ardnew/lam/lang/types"
	"github.com/ardnew/lam/lang/value"
	"github.com/ardnew/lam/log"
)

func newSession(t *testing.T, opts ...lang.Option) *lang.Session {
	t.Helper()

	s, err := lang.NewSession(t.Context(), opts...)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	return s
}

func TestSession_Run(t *testing.T) {
	tests := []struct {
		name  string
		stmts []string
		want  string
		typ   types.Type
	}{
		{"literal", []string{"5"}, "5", types.Number},
		{"string", []string{`cat "foo" "bar"`}, "foobar", types.String},
		{"arithmetic", []string{"add (mul 6 7) (dec 1)"}, "42", types.Number},
		{"assignment", []string{"name = 5"}, "[None]", types.None},
		{"read back", []string{"name = 5", "name"}, "5", types.Number},
		{"identity", []string{"f = x : Number → x", "f 3"}, "3", types.Number},
		{"closure value", []string{`x\: Number x`}, "[Closure]", types.Closure(types.Number, types.Number)},
		{"shadowing", []string{"x = 1", `(x\: Number add x x) 10`}, "20", types.Number},
		{"typed", []string{"n : Number = 2", "inc n"}, "3", types.Number},
		{"curried", []string{`plus = x\: Number y\: Number add x y`, "plus2 = plus 2", "plus2 40"}, "42", types.Number},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t)

			var res lang.Result

			for _, src := range tt.stmts {
				var err error

				res, err = s.Run(t.Context(), src)
				if err != nil {
					t.Fatalf("run %q: %v", src, err)
				}

				if !res.Accepted() {
					t.Fatalf("run %q: rejected with %v", src, res.Diagnostics)
				}
			}

			if got := res.Value.String(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}

			if !res.Type.Equal(tt.typ) {
				t.Errorf("expected type %s, got %s", tt.typ, res.Type)
			}
		})
	}
}

func TestSession_Rejected(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want diag.Kind
	}{
		{"unknown token", "x = $", diag.UnknownToken},
		{"unexpected token", "(inc 1", diag.UnexpectedToken},
		{"unknown name", "ghost", diag.UnknownName},
		{"unexpected type", `inc "1"`, diag.UnexpectedType},
		{"bad call", "1 1", diag.BadCall},
		{"reassignment", "inc = 1", diag.Reassignment},
		{"mismatched annotation", `n : Number = "s"`, diag.MismatchedTypeAssignment},
		{"not callable parameter", "add2 = x : Number → y : Number → x y", diag.BadCall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newSession(t).Run(t.Context(), tt.src)
			if err != nil {
				t.Fatalf("unexpected fatal error: %v", err)
			}

			if res.Accepted() {
				t.Fatalf("expected rejection, got %v", res.Value)
			}

			if countKind(res.Diagnostics, tt.want) == 0 {
				t.Errorf("expected %s, got %v", tt.want, res.Diagnostics)
			}
		})
	}
}

func TestSession_SyntaxSuppressesBinding(t *testing.T) {
	s := newSession(t)

	res, _ := s.Run(t.Context(), "x = (ghost")
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Category() != diag.Syntax {
		t.Errorf("expected a single syntax diagnostic, got %v", res.Diagnostics)
	}

	if _, _, ok := s.Lookup("x"); ok {
		t.Errorf("expected x to stay undeclared")
	}
}

func TestSession_Fatal(t *testing.T) {
	tests := []struct {
		src  string
		want error
	}{
		{"div 1 0", library.ErrDivideByZero},
		{"dec 0", library.ErrUnderflow},
		{"99999999999999999999", eval.ErrBadLiteral},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			res, err := newSession(t).Run(t.Context(), tt.src)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}

			if res.Accepted() {
				t.Errorf("expected no value")
			}
		})
	}
}

func TestSession_FrameIsolation(t *testing.T) {
	s := newSession(t)
	run(t, s, "f = x : Number → x")

	before := s.Scopes()

	if got := run(t, s, "f 1"); got != value.Number(1) {
		t.Errorf("expected 1, got %v", got)
	}

	if got := run(t, s, "f 2"); got != value.Number(2) {
		t.Errorf("expected 2, got %v", got)
	}

	if got := s.Scopes() - before; got != 2 {
		t.Errorf("expected 2 new frames, got %d", got)
	}
}

func TestSession_AppendOnlyByDefault(t *testing.T) {
	s := newSession(t)

	// Binds x, then fails to evaluate.
	if _, err := s.Run(t.Context(), "x = div 1 0"); err == nil {
		t.Fatalf("expected fatal error")
	}

	typ, val, ok := s.Lookup("x")
	if !ok || !typ.Equal(types.Number) || val != nil {
		t.Errorf("expected declared but unbound x, got %v %v %v", ok, typ, val)
	}

	if _, err := s.Run(t.Context(), "x"); !errors.Is(err, eval.ErrUnboundName) {
		t.Errorf("expected ErrUnboundName, got %v", err)
	}
}

func TestSession_Atomic(t *testing.T) {
	s := newSession(t, lang.WithAtomic(true))
	before := s.Scopes()

	if _, err := s.Run(t.Context(), "x = div 1 0"); err == nil {
		t.Fatalf("expected fatal error")
	}

	if _, _, ok := s.Lookup("x"); ok {
		t.Errorf("expected x to be rolled back")
	}

	res, _ := s.Run(t.Context(), `y = z\: Number ghost`)
	if res.Accepted() {
		t.Fatalf("expected rejection")
	}

	if s.Scopes() != before {
		t.Errorf("expected %d frames, got %d", before, s.Scopes())
	}

	if got := run(t, s, "x = 1", "x"); got != value.Number(1) {
		t.Errorf("expected 1, got %v", got)
	}
}

func TestSession_Extensions(t *testing.T) {
	s := newSession(t, lang.WithExtensions(library.Extension{
		Name:   "max",
		Params: []library.Param{{Name: "a", Type: "Number"}, {Name: "b", Type: "Number"}},
		Result: "Number",
		Expr:   "a > b ? a : b",
	}))

	if got := run(t, s, "max 3 (inc 8)"); got != value.Number(9) {
		t.Errorf("expected 9, got %v", got)
	}

	_, err := lang.NewSession(t.Context(), lang.WithExtensions(library.Extension{
		Name:   "inc",
		Result: "Number",
		Expr:   "1",
	}))
	if !errors.Is(err, library.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestSession_NamesAndDefinitions(t *testing.T) {
	s := newSession(t)
	run(t, s, "zeta = true")

	var names []string
	for _, b := range s.Names() {
		names = append(names, b.Name)
	}

	want := []string{"add", "cat", "dec", "div", "inc", "mul", "sub", "zeta"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("unexpected names (-want +got):\n%s", diff)
	}

	var defs []string
	for _, b := range s.Definitions() {
		defs = append(defs, b.Name)
	}

	if diff := cmp.Diff([]string{"Boolean", "Number", "String"}, defs); diff != "" {
		t.Errorf("unexpected definitions (-want +got):\n%s", diff)
	}
}

func TestSession_TranscriptReplay(t *testing.T) {
	s := newSession(t)
	run(t, s, "a = 2", "b = mul a 21")
	s.Run(t.Context(), "ghost")

	want := []string{"a = 2", "b = mul a 21"}
	if diff := cmp.Diff(want, s.Transcript()); diff != "" {
		t.Fatalf("unexpected transcript (-want +got):\n%s", diff)
	}

	replay := newSession(t)
	for _, src := range s.Transcript() {
		run(t, replay, src)
	}

	if got := run(t, replay, "b"); got != value.Number(42) {
		t.Errorf("expected 42, got %v", got)
	}
}

func TestSession_WithoutCache(t *testing.T) {
	lang.ClearCache()

	s := newSession(t, lang.WithCache(false))
	run(t, s, "inc 1")

	if n := lang.CacheLen(); n != 0 {
		t.Errorf("expected empty cache, got %d", n)
	}
}

// run runs each statement, failing the test unless all are accepted, and
// returns the last value.
func run(t *testing.T, s *lang.Session, stmts ...string) value.Value {
	t.Helper()

	var last value.Value

	for _, src := range stmts {
		res, err := s.Run(t.Context(), src)
		if err != nil {
			t.Fatalf("run %q: %v", src, err)
		}

		if !res.Accepted() {
			t.Fatalf("run %q: %v", src, res.Diagnostics)
		}

		last = res.Value
	}

	return last
}

func TestSession_TraceLogging(t *testing.T) {
	var buf bytes.Buffer

	logger := log.Make(&buf,
		log.WithLevel(log.LevelTrace),
		log.WithFormat(log.FormatText),
		log.WithPretty(false),
		log.WithTimeLayout("none"),
	)

	s := newSession(t, lang.WithLogger(logger), lang.WithCache(false))

	if _, err := s.Run(t.Context(), `(x \: Number inc x) 4`); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"msg=parse", `msg=references names="[inc x]"`, "msg=bind", `msg="push scope"`, `msg="apply closure"`, `msg="apply builtin"`, "msg=run"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %s in trace log:\n%s", want, buf.String())
		}
	}
}

func countKind(ds []diag.Diagnostic, k diag.Kind) int {
	n := 0

	for _, d := range ds {
		if d.Kind == k {
			n++
		}
	}

	return n
}
