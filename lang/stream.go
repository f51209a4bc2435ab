package lang

import (
	"bufio"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"strings"

	"github.com/klauspost/readahead"
)

// Directives recognized in statement streams.
const (
	DirectiveExit  = "exit"
	DirectiveClear = "clear"
)

// maxStatement bounds the length of one line of input.
const maxStatement = 1 << 20

// Statement is one line of source text.
type Statement struct {
	Line int
	Text string
}

// Directive returns the word following a leading '#', if any. Lines that
// start with '#' but name no known directive are comments.
func (s Statement) Directive() (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s.Text), "#")
	if !ok {
		return "", false
	}

	return strings.TrimSpace(rest), true
}

// Statements iterates the non-blank lines of r. Iteration stops after the
// first read error, which is yielded with a zero Statement.
//
// Regular files are prefetched while earlier statements are evaluated.
// Other inputs, such as terminals and pipes, are read on demand so that a
// consumer can stop without waiting for input that may never arrive.
func Statements(r io.Reader) iter.Seq2[Statement, error] {
	return func(yield func(Statement, error) bool) {
		if regular(r) {
			ra := readahead.NewReader(r)
			defer ra.Close()

			r = ra
		}

		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 4096), maxStatement)

		line := 0

		for sc.Scan() {
			line++

			text := strings.TrimSuffix(sc.Text(), "\r")
			if strings.TrimSpace(text) == "" {
				continue
			}

			if !yield(Statement{Line: line, Text: text}, nil) {
				return
			}
		}

		if err := sc.Err(); err != nil {
			yield(Statement{}, ErrReadInput.Wrap(err).With(slog.Int("line", line+1)))
		}
	}
}

// regular reports whether r is a regular file, whose reads always end.
func regular(r io.Reader) bool {
	f, ok := r.(interface{ Stat() (fs.FileInfo, error) })
	if !ok {
		return false
	}

	info, err := f.Stat()

	return err == nil && info.Mode().IsRegular()
}
