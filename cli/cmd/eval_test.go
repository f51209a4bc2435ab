package cmd

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestEvalRun(t *testing.T) {
	tests := []struct {
		name      string
		files     []string
		keepGoing bool
		wantOut   string
		wantErr   []string // substrings of the diagnostics stream
		rejected  bool
	}{
		{
			name:    "values",
			files:   []string{"x = 2\nmul x 21\n\n\"hi\"\ntrue\n"},
			wantOut: "42\nhi\ntrue\n",
		},
		{
			name:    "none is silent",
			files:   []string{"f = x\\: Number x\ny = f 3\n"},
			wantOut: "",
		},
		{
			name:    "files share a session",
			files:   []string{"x = 5\n", "inc x\n"},
			wantOut: "6\n",
		},
		{
			name:     "stops at first rejection",
			files:    []string{"inc 1\ninc \"a\"\ninc 2\n"},
			wantOut:  "2\n",
			wantErr:  []string{"f0.lam:2: Type Error: Unexpected type String, expected a Number"},
			rejected: true,
		},
		{
			name:      "keep going",
			files:     []string{"inc 1\n(\ninc 2\n"},
			keepGoing: true,
			wantOut:   "2\n3\n",
			wantErr:   []string{"f0.lam:2: Syntax Error: Unexpected token EndOfFile"},
			rejected:  true,
		},
		{
			name:     "rejection skips later files",
			files:    []string{"ghost\n", "inc 1\n"},
			wantErr:  []string{`f0.lam:1: Type Error: Unknown name "ghost"`},
			rejected: true,
		},
		{
			name:    "exit directive",
			files:   []string{"inc 1\n# a comment\n#exit\ninc 2\n", "inc 3\n"},
			wantOut: "2\n",
		},
		{
			name:     "fatal error",
			files:    []string{"div 1 0\n"},
			wantErr:  []string{"f0.lam:1: evaluation failed: division by zero"},
			rejected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()

			var paths []string
			for i, content := range tt.files {
				paths = append(paths, writeFile(t, dir, "f"+string(rune('0'+i))+".lam", content))
			}

			t.Chdir(dir)

			for i := range paths {
				paths[i] = filepath.Base(paths[i])
			}

			var out, errOut bytes.Buffer

			ctx := WithStreams(t.Context(), &out, &errOut)

			err := (&Eval{Sources: paths, KeepGoing: tt.keepGoing}).Run(ctx)

			if tt.rejected != errors.Is(err, ErrRejected) {
				t.Errorf("expected rejected=%v, got error %v", tt.rejected, err)
			}

			if out.String() != tt.wantOut {
				t.Errorf("expected output %q, got %q", tt.wantOut, out.String())
			}

			for _, want := range tt.wantErr {
				if !strings.Contains(errOut.String(), want) {
					t.Errorf("expected diagnostics to contain %q, got %q", want, errOut.String())
				}
			}

			if len(tt.wantErr) == 0 && errOut.Len() != 0 {
				t.Errorf("expected no diagnostics, got %q", errOut.String())
			}
		})
	}
}

func TestEvalStdin(t *testing.T) {
	pipeStdin(t, "cat \"a\" \"b\"\n")

	var out bytes.Buffer

	ctx := WithStreams(t.Context(), &out, &bytes.Buffer{})

	if err := (&Eval{}).Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.String() != "ab\n" {
		t.Errorf("expected %q, got %q", "ab\n", out.String())
	}
}

func TestEvalMissingSource(t *testing.T) {
	err := (&Eval{Sources: []string{filepath.Join(t.TempDir(), "nope.lam")}}).Run(t.Context())
	if !errors.Is(err, ErrOpenSource) {
		t.Errorf("expected ErrOpenSource, got %v", err)
	}
}
