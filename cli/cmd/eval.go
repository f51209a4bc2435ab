package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ardnew/lam/lang"
	"github.com/ardnew/lam/lang/eval"
	"github.com/ardnew/lam/lang/value"
	"github.com/ardnew/lam/log"
)

// Eval runs every statement of its sources in one session.
type Eval struct {
	Sources   []string `arg:"" help:"Source input files or '-' for stdin (default)" name:"source" optional:""`
	KeepGoing bool     `help:"Continue after a rejected statement"                                         short:"k"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := openSources(e.Sources)
	if err != nil {
		return err
	}
	defer srcs.Close()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}

	std := streamsFrom(ctx)

	var rejected int

	for _, src := range srcs {
		stop, err := e.run(ctx, s, src, std, &rejected)
		if err != nil {
			return err
		}

		if stop {
			break
		}
	}

	if rejected > 0 {
		return ErrRejected.With(slog.Int("count", rejected))
	}

	return nil
}

// run evaluates the statements of src. It reports stop when the remaining
// sources must be skipped.
func (e *Eval) run(
	ctx context.Context,
	s *lang.Session,
	src source,
	std streams,
	rejected *int,
) (stop bool, err error) {
	for stmt, err := range lang.Statements(src.Reader) {
		if err != nil {
			return true, err
		}

		if word, ok := stmt.Directive(); ok {
			if word == lang.DirectiveExit {
				return true, nil
			}

			continue
		}

		res, err := s.Run(ctx, stmt.Text)
		if errors.Is(err, eval.ErrCanceled) {
			return true, err
		}

		if res.Accepted() {
			if _, none := res.Value.(value.None); !none {
				fmt.Fprintln(std.out, res.Value)
			}

			continue
		}

		*rejected++

		report(std.err, src.name, stmt.Line, res, err)

		log.DebugContext(ctx, "statement rejected",
			slog.String("source", src.name),
			slog.Int("line", stmt.Line),
			slog.Int("diagnostics", len(res.Diagnostics)),
		)

		if !e.KeepGoing {
			return true, nil
		}
	}

	return false, nil
}

// report writes the diagnostics of a rejected statement, or its fatal
// error, prefixed with the source position.
func report(w io.Writer, name string, line int, res lang.Result, err error) {
	if err != nil {
		fmt.Fprintf(w, "%s:%d: %s\n", name, line, ErrFatal.Wrap(err))
	}

	for _, d := range res.Diagnostics {
		fmt.Fprintf(w, "%s:%d: %s\n", name, line, d)
	}
}
