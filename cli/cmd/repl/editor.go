package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/lam/lang"
	"github.com/ardnew/lam/log"
)

const defaultEditor = "vi"

// Factory creates the fresh sessions used by reset and edit.
type Factory func(context.Context) (*lang.Session, error)

// editCommand implements [tea.ExecCommand] for the edit-replay-retry loop.
// It writes the transcript of the current session to a temp file, opens
// the user's editor, and replays the result into a fresh session. When a
// statement is rejected the user is prompted to re-edit.
type editCommand struct {
	session *lang.Session
	factory Factory
	ctxFunc func() context.Context
	logger  log.Logger
	replay  *lang.Session
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. An empty file cancels the edit and leaves
// replay nil. If the user declines to re-edit, it returns
// [ErrEditDeclined].
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	if c.factory == nil {
		return ErrNoSession
	}

	content := strings.Join(c.session.Transcript(), "\n") + "\n"

	f, err := os.CreateTemp(os.TempDir(), "lam-repl-*.lam")
	if err != nil {
		return err
	}

	tmpPath := f.Name()
	defer os.Remove(tmpPath)

	if err := f.Close(); err != nil {
		return err
	}

	for {
		if err := os.WriteFile(tmpPath, []byte(content), 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath); err != nil {
			return err
		}

		data, err := os.ReadFile(tmpPath)
		if err != nil {
			return err
		}

		if strings.TrimSpace(string(data)) == "" {
			return nil
		}

		s, err := c.factory(ctx)
		if err != nil {
			return err
		}

		rejected, err := replay(ctx, s, strings.NewReader(string(data)), c.stderr)

		c.logger.TraceContext(ctx, "editor replay",
			slog.Int("content_length", len(data)),
			slog.Bool("accepted", !rejected && err == nil),
		)

		if err != nil {
			return err
		}

		if !rejected {
			c.replay = s

			return nil
		}

		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}

		content = string(data)
	}
}

// replay runs each statement of r in s until one is rejected, whose
// diagnostics are written to w. Only errors that end the session, such as
// cancellation, are returned.
func replay(ctx context.Context, s *lang.Session, r io.Reader, w io.Writer) (rejected bool, err error) {
	for stmt, err := range lang.Statements(r) {
		if err != nil {
			return false, err
		}

		if word, ok := stmt.Directive(); ok {
			if word == lang.DirectiveExit {
				return false, nil
			}

			continue
		}

		res, err := s.Run(ctx, stmt.Text)
		if ctx.Err() != nil {
			return false, errors.Join(err, context.Cause(ctx))
		}

		if res.Accepted() {
			continue
		}

		fmt.Fprintf(w, "line %d: %s\n", stmt.Line, stmt.Text)

		if err != nil {
			fmt.Fprintf(w, "  %s\n", err)
		}

		for _, d := range res.Diagnostics {
			fmt.Fprintf(w, "  %s\n", d)
		}

		return true, nil
	}

	return false, nil
}

// runEditor launches the user's editor on the given file path.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	args := strings.Fields(os.Getenv("EDITOR"))
	if len(args) == 0 {
		args = []string{defaultEditor}
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
