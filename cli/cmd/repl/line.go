package repl

import (
	"context"
	"fmt"
	"io"

	"github.com/ardnew/lam/lang"
	"github.com/ardnew/lam/lang/value"
)

const (
	linePrompt  = "> "
	clearScreen = "\x1b[2J\x1b[H"
)

// runLine runs the REPL without a terminal interface. Each input line is
// a statement; the first diagnostic of a rejected statement is printed in
// place of its value.
func runLine(ctx context.Context, s *lang.Session, in io.Reader, out io.Writer) error {
	fmt.Fprint(out, linePrompt)

	for stmt, err := range lang.Statements(in) {
		if err != nil {
			return err
		}

		if word, ok := stmt.Directive(); ok {
			switch word {
			case lang.DirectiveExit:
				return nil
			case lang.DirectiveClear:
				fmt.Fprint(out, clearScreen)
			}

			fmt.Fprint(out, linePrompt)

			continue
		}

		res, err := s.Run(ctx, stmt.Text)

		switch {
		case ctx.Err() != nil:
			return context.Cause(ctx)
		case err != nil:
			fmt.Fprintln(out, "Runtime Error:", err)
		case len(res.Diagnostics) > 0:
			fmt.Fprintln(out, res.Diagnostics[0])
		default:
			if _, none := res.Value.(value.None); !none {
				fmt.Fprintln(out, res.Value)
			}
		}

		fmt.Fprint(out, linePrompt)
	}

	return nil
}
