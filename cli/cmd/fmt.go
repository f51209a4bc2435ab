package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/lam/lang"
	"github.com/ardnew/lam/lang/ast"
	"github.com/ardnew/lam/lang/parser"
	"github.com/ardnew/lam/log"
)

// Fmt parses statements and prints them in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as canonical lam syntax (default)."`
	JSON   JSON   `cmd:""                    help:"Format as JSON."`
	YAML   YAML   `cmd:""                    help:"Format as YAML."`
	AST    AST    `cmd:""                    help:"Format as an indented syntax tree."`
}

// Native prints each statement in canonical form. Directive and comment
// lines are kept as written.
type Native struct {
	Sources []string `arg:"" help:"Source input files or '-' for stdin (default)." name:"source" optional:""`
}

// Run executes the native format command.
func (f *Native) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return format(ctx, f.Sources, "native", func(w io.Writer, sx syntax) error {
		if sx.root == nil {
			_, err := fmt.Fprintln(w, strings.TrimSpace(sx.stmt.Text))

			return err
		}

		return ast.Format(w, sx.root)
	})
}

// JSON prints one JSON object per statement.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Sources []string `arg:"" help:"Source input files or '-' for stdin (default)." name:"source" optional:""`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return format(ctx, j.Sources, "json", func(w io.Writer, sx syntax) error {
		if sx.root == nil {
			return nil
		}

		enc := json.NewEncoder(w)
		if j.Indent > 0 {
			enc.SetIndent("", strings.Repeat(" ", j.Indent))
		}

		if err := enc.Encode(sx.document()); err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		return nil
	})
}

// YAML prints one YAML document per statement.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Sources []string `arg:"" help:"Source input files or '-' for stdin (default)." name:"source" optional:""`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	var opts []yaml.EncodeOption
	if y.Indent > 0 {
		opts = append(opts, yaml.Indent(y.Indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	return format(ctx, y.Sources, "yaml", func(w io.Writer, sx syntax) error {
		if sx.root == nil {
			return nil
		}

		data, err := yaml.MarshalContext(ctx, sx.document(), opts...)
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

		_, err = fmt.Fprintf(w, "---\n%s", data)

		return err
	})
}

// AST prints each statement as an indented outline of its syntax tree.
type AST struct {
	Sources []string `arg:"" help:"Source input files or '-' for stdin (default)." name:"source" optional:""`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return format(ctx, a.Sources, "ast", func(w io.Writer, sx syntax) error {
		if sx.root == nil {
			return nil
		}

		return ast.Dump(w, sx.root)
	})
}

// syntax is one parsed statement. root is nil for directive and comment
// lines.
type syntax struct {
	source string
	stmt   lang.Statement
	root   ast.Syntax
}

// document returns the structured form of sx used by the JSON and YAML
// formats.
func (sx syntax) document() map[string]any {
	return map[string]any{
		"source": sx.source,
		"line":   sx.stmt.Line,
		"syntax": ast.Encode(sx.root),
	}
}

// format parses every statement of the named sources and passes each to
// emit. Statements with syntax errors are reported and skipped; the
// command fails once all sources are read.
func format(
	ctx context.Context,
	paths []string,
	mode string,
	emit func(io.Writer, syntax) error,
) error {
	srcs, err := openSources(paths)
	if err != nil {
		return err
	}
	defer srcs.Close()

	std := streamsFrom(ctx)

	var rejected int

	for _, src := range srcs {
		for stmt, err := range lang.Statements(src.Reader) {
			if err != nil {
				return err
			}

			sx := syntax{source: src.name, stmt: stmt}

			if _, ok := stmt.Directive(); !ok {
				root, diags, err := parser.Parse(stmt.Text,
					parser.WithLogger(log.Default()),
					parser.WithContext(ctx),
				)
				if err != nil {
					return err
				}

				if len(diags) > 0 {
					rejected++

					report(std.err, src.name, stmt.Line, lang.Result{Diagnostics: diags}, nil)

					continue
				}

				sx.root = root
			}

			if err := emit(std.out, sx); err != nil {
				return err
			}
		}
	}

	if rejected > 0 {
		return ErrRejected.With(
			slog.String("format", mode),
			slog.Int("count", rejected),
		)
	}

	return nil
}
