package ast_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/lam/lang/ast"
	"github.com/ardnew/lam/lang/parser"
)

func mustParse(t *testing.T, src string) ast.Syntax {
	t.Helper()

	root, ds, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}

	if len(ds) != 0 {
		t.Fatalf("parse %q: unexpected diagnostics %v", src, ds)
	}

	return root
}

func TestNames(t *testing.T) {
	root := mustParse(t, `f = x\: Number add x (inc y)`)

	want := []string{"add", "x", "inc", "y"}
	if diff := cmp.Diff(want, ast.Names(root)); diff != "" {
		t.Errorf("unexpected names (-want +got):\n%s", diff)
	}
}

func TestInspect_SkipChildren(t *testing.T) {
	root := mustParse(t, `f (x\: Number g x)`)

	var visited int

	ast.Inspect(root, func(s ast.Syntax) bool {
		visited++

		_, isClosure := s.(*ast.Closure)

		return !isClosure
	})

	// call, f, closure
	if visited != 3 {
		t.Errorf("expected 3 visited nodes, got %d", visited)
	}
}

func TestString_RoundTrip(t *testing.T) {
	for _, src := range []string{
		"f x y",
		"f (g x) y",
		`x\: Number y\: Number add x y`,
		`(x\: Boolean x) true`,
		`n : String = cat "a" "b"`,
		"f (y = 1) z",
	} {
		t.Run(src, func(t *testing.T) {
			once := ast.String(mustParse(t, src))
			twice := ast.String(mustParse(t, once))

			if once != twice {
				t.Errorf("expected stable canonical form %q, got %q", once, twice)
			}
		})
	}
}

func TestSpan(t *testing.T) {
	root := mustParse(t, "x = f 10")

	if got := root.Span().String(); got != "0..8" {
		t.Errorf("expected 0..8, got %s", got)
	}
}

func TestEncode(t *testing.T) {
	root := mustParse(t, `id = x\: Number x`)

	b, err := json.Marshal(ast.Encode(root))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := map[string]any{
		"kind": "assignment",
		"span": "0..17",
		"name": "id",
		"expr": map[string]any{
			"kind":  "closure",
			"span":  "5..17",
			"param": "x",
			"type":  "Number",
			"body": map[string]any{
				"kind": "name",
				"span": "16..17",
				"text": "x",
			},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected encoding (-want +got):\n%s", diff)
	}
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer

	if err := ast.Dump(&buf, mustParse(t, "f 1")); err != nil {
		t.Fatalf("dump: %v", err)
	}

	want := strings.Join([]string{
		"Call [0..3]",
		"  Name f [0..1]",
		"  Literal Number 1 [2..3]",
		"",
	}, "\n")

	if got := buf.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
