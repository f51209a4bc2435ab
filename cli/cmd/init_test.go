package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/lam/lang"
	"github.com/ardnew/lam/lang/value"
)

// initCLI mirrors the shape of the top-level flags.
type initCLI struct {
	LogLevel  string   `default:"warn"`
	LogPretty bool     `default:"true" negatable:""`
	Library   []string `sep:","`
	Atomic    bool
	Depth     int `default:"3"`
	Note      string
}

// parseInit parses args against initCLI with the config path at base.
func parseInit(t *testing.T, base string, args ...string) *kong.Context {
	t.Helper()

	var cli initCLI

	parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: base}, kong.Exit(func(int) {}))
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		t.Fatal(err)
	}

	return ktx
}

func TestInitRun(t *testing.T) {
	tests := []struct {
		name    string
		force   bool
		exists  bool
		wantErr error
	}{
		{"create new config", false, false, nil},
		{"overwrite existing with force", true, true, nil},
		{"fail without force", false, true, ErrFileExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "config")

			if tt.exists {
				if err := os.WriteFile(base, []byte("existing"), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			ctx := WithContext(t.Context(), parseInit(t, base))

			err := (&Init{Force: tt.force, Format: "lam"}).Run(ctx)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			data, err := os.ReadFile(base)
			if err != nil {
				t.Fatal(err)
			}

			if string(data) == "existing" {
				t.Errorf("expected config to be rewritten")
			}
		})
	}
}

func TestInitLam(t *testing.T) {
	base := filepath.Join(t.TempDir(), "config")
	ktx := parseInit(t, base,
		"--log-level", "debug", "--no-log-pretty", "--library", "a.yaml,b.yaml", "--note", `say "hi"`,
	)

	if err := (&Init{Format: "lam"}).Run(WithContext(t.Context(), ktx)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(base)
	if err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		`logLevel = "debug"`,
		`logPretty = false`,
		`library = "a.yaml,b.yaml"`,
		`atomic = false`,
		`depth = 3`,
		"",
	}, "\n")

	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	// The generated file is a valid program.
	s, err := lang.NewSession(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	for stmt := range lang.Statements(strings.NewReader(string(data))) {
		res, err := s.Run(t.Context(), stmt.Text)
		if err != nil || !res.Accepted() {
			t.Errorf("line %d rejected: %v %v", stmt.Line, err, res.Diagnostics)
		}
	}

	if _, v, _ := s.Lookup("depth"); v != value.Number(3) {
		t.Errorf("expected depth 3, got %v", v)
	}
}

func TestInitYAMLAndJSON(t *testing.T) {
	base := filepath.Join(t.TempDir(), "config")
	ktx := parseInit(t, base, "--atomic", "--library", "x.yaml")
	ctx := WithContext(t.Context(), ktx)

	if err := (&Init{Format: "yaml"}).Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := (&Init{Format: "json"}).Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"log-level":  "warn",
		"log-pretty": true,
		"library":    []any{"x.yaml"},
		"atomic":     true,
		"depth":      float64(3),
	}

	var fromYAML, fromJSON map[string]any

	data, err := os.ReadFile(base + ".yaml")
	if err != nil {
		t.Fatal(err)
	}

	if err := yaml.Unmarshal(data, &fromYAML); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}

	data, err = os.ReadFile(base + ".json")
	if err != nil {
		t.Fatal(err)
	}

	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if diff := cmp.Diff(want, fromJSON); diff != "" {
		t.Errorf("JSON config mismatch (-want +got):\n%s", diff)
	}

	if fromYAML["log-level"] != "warn" || fromYAML["atomic"] != true {
		t.Errorf("unexpected YAML config: %v", fromYAML)
	}
}

func TestConfigKey(t *testing.T) {
	tests := map[string]string{
		"atomic":          "atomic",
		"log-level":       "logLevel",
		"log-time-layout": "logTimeLayout",
		"pprof_dir":       "pprofDir",
	}

	for in, want := range tests {
		if got := ConfigKey(in); got != want {
			t.Errorf("ConfigKey(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{true, "true", true},
		{"text", `"text"`, true},
		{`has "quotes"`, "", false},
		{"two\nlines", "", false},
		{[]string{"a", "b"}, `"a,b"`, true},
		{7, "7", true},
		{-1, "", false},
		{1.5, "", false},
	}

	for _, tt := range tests {
		got, ok := literal(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("literal(%#v): expected (%q, %v), got (%q, %v)", tt.in, tt.want, tt.ok, got, ok)
		}
	}
}
