package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/lam/lang/value"
)

// writeFile writes content to name under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

// readSources returns the names and contents of srcs.
func readSources(t *testing.T, srcs sources) (names, contents []string) {
	t.Helper()

	for _, src := range srcs {
		data, err := io.ReadAll(src)
		if err != nil {
			t.Fatalf("reading %s: %v", src.name, err)
		}

		names = append(names, src.name)
		contents = append(contents, string(data))
	}

	return names, contents
}

// pipeStdin replaces os.Stdin with a pipe carrying content.
func pipeStdin(t *testing.T, content string) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}

	old := os.Stdin
	os.Stdin = r

	t.Cleanup(func() {
		os.Stdin = old
		r.Close()
	})

	go func() {
		defer w.Close()
		io.WriteString(w, content)
	}()
}

func TestOpenSourcesEmptyReadsStdin(t *testing.T) {
	srcs, err := openSources(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(srcs) != 1 || srcs[0].Reader != os.Stdin {
		t.Errorf("expected a single stdin source, got %v", srcs)
	}
}

func TestOpenSourcesOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.lam", "first")
	b := writeFile(t, dir, "b.lam", "second")

	srcs, err := openSources([]string{b, a})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer srcs.Close()

	names, contents := readSources(t, srcs)

	if diff := cmp.Diff([]string{b, a}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"second", "first"}, contents); diff != "" {
		t.Errorf("contents mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenSourcesDeduplicates(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "x.lam", "unique")

	link := filepath.Join(dir, "link.lam")
	if err := os.Symlink(path, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	t.Chdir(dir)

	srcs, err := openSources([]string{path, "x.lam", link, path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer srcs.Close()

	_, contents := readSources(t, srcs)

	if diff := cmp.Diff([]string{"unique"}, contents); diff != "" {
		t.Errorf("expected the file once (-want +got):\n%s", diff)
	}
}

func TestOpenSourcesStdinLast(t *testing.T) {
	pipeStdin(t, "stdin")

	path := writeFile(t, t.TempDir(), "f.lam", "file")

	srcs, err := openSources([]string{"-", path, "-"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer srcs.Close()

	names, contents := readSources(t, srcs)

	if diff := cmp.Diff([]string{path, "<stdin>"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"file", "stdin"}, contents); diff != "" {
		t.Errorf("contents mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenSourcesMissing(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ok.lam", "")

	_, err := openSources([]string{path, filepath.Join(t.TempDir(), "missing.lam")})
	if !errors.Is(err, ErrOpenSource) {
		t.Errorf("expected ErrOpenSource, got %v", err)
	}
}

func TestStreamsDefault(t *testing.T) {
	std := streamsFrom(context.Background())
	if std.out != os.Stdout || std.err != os.Stderr {
		t.Errorf("expected standard streams, got %+v", std)
	}

	var out, errOut bytes.Buffer

	std = streamsFrom(WithStreams(context.Background(), &out, &errOut))
	if std.out != &out || std.err != &errOut {
		t.Errorf("expected redirected streams, got %+v", std)
	}
}

const libraryYAML = `
modules:
  - name: max
    params:
      - {name: a, type: Number}
      - {name: b, type: Number}
    result: Number
    expr: "a > b ? a : b"
`

func TestNewSessionLibrary(t *testing.T) {
	lib := writeFile(t, t.TempDir(), "lib.yaml", libraryYAML)

	ctx := WithSessionConfig(t.Context(), SessionConfig{Library: []string{lib}})

	s, err := newSession(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := s.Run(ctx, "max 3 9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Value != value.Number(9) {
		t.Errorf("expected 9, got %v", res.Value)
	}
}

func TestNewSessionAtomic(t *testing.T) {
	ctx := WithSessionConfig(t.Context(), SessionConfig{Atomic: true})

	s, err := newSession(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.Run(ctx, "x = div 1 0"); err == nil {
		t.Fatalf("expected fatal error")
	}

	if _, _, ok := s.Lookup("x"); ok {
		t.Errorf("expected x to be rolled back")
	}
}

func TestNewSessionBadLibrary(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.yaml")},
		{"invalid", writeFile(t, dir, "bad.yaml", "modules:\n  - name: inc\n    result: Number\n    expr: \"1\"\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithSessionConfig(t.Context(), SessionConfig{Library: []string{tt.path}})

			_, err := newSession(ctx)
			if !errors.Is(err, ErrLibrary) {
				t.Errorf("expected ErrLibrary, got %v", err)
			}
		})
	}
}
