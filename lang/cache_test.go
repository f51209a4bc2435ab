package lang_test

import (
	"testing"

	"github.com/ardnew/lam/lang"
)

func TestCache_SharedAcrossSessions(t *testing.T) {
	lang.ClearCache()
	t.Cleanup(lang.ClearCache)

	a := newSession(t)
	b := newSession(t)

	ra, _, err := a.Parse(t.Context(), "add 1 2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	rb, _, _ := b.Parse(t.Context(), "add 1 2")

	if ra != rb {
		t.Errorf("expected the cached tree to be shared")
	}

	if n := lang.CacheLen(); n != 1 {
		t.Errorf("expected 1 cached statement, got %d", n)
	}
}

func TestCache_DiagnosticsAreCopied(t *testing.T) {
	lang.ClearCache()
	t.Cleanup(lang.ClearCache)

	s := newSession(t)

	_, first, _ := s.Parse(t.Context(), "(")
	if len(first) == 0 {
		t.Fatalf("expected diagnostics")
	}

	first[0].Name = "mutated"

	_, second, _ := s.Parse(t.Context(), "(")
	if second[0].Name == "mutated" {
		t.Errorf("expected cached diagnostics to be isolated from callers")
	}
}

func TestCache_KeyedByDepth(t *testing.T) {
	lang.ClearCache()
	t.Cleanup(lang.ClearCache)

	src := "((((1))))"

	if _, _, err := newSession(t).Parse(t.Context(), src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := newSession(t, lang.WithMaxDepth(2)).Parse(t.Context(), src); err == nil {
		t.Errorf("expected depth error despite a cached deeper parse")
	}
}

func TestClearCache(t *testing.T) {
	newSession(t).Parse(t.Context(), "inc 1")
	lang.ClearCache()

	if n := lang.CacheLen(); n != 0 {
		t.Errorf("expected empty cache, got %d", n)
	}
}

func BenchmarkSession_Run(b *testing.B) {
	s, err := lang.NewSession(b.Context())
	if err != nil {
		b.Fatal(err)
	}

	if _, err := s.Run(b.Context(), `f = x\: Number add x (mul x 2)`); err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if _, err := s.Run(b.Context(), "f 7"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSession_RunUncached(b *testing.B) {
	s, err := lang.NewSession(b.Context(), lang.WithCache(false))
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if _, err := s.Run(b.Context(), `cat "a" "b"`); err != nil {
			b.Fatal(err)
		}
	}
}
