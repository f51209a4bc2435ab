package cmd

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/ardnew/lam/cli/cmd/repl"
	"github.com/ardnew/lam/lang"
	"github.com/ardnew/lam/log"
)

// Repl starts an interactive session.
type Repl struct {
	Sources []string `arg:"" help:"Files to run before the session starts" name:"source" optional:""`
	History bool     `default:"true" help:"Persist input history in the cache directory" negatable:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s, err := newSession(ctx)
	if err != nil {
		return err
	}

	if len(r.Sources) > 0 {
		if err := r.preload(ctx, s); err != nil {
			return err
		}
	}

	var history string

	if ktx := kongContextFrom(ctx); ktx != nil && r.History {
		if dir, ok := ktx.Model.Vars()[CacheIdentifier]; ok {
			history = filepath.Join(dir, repl.HistoryFile)
		}
	}

	std := streamsFrom(ctx)

	return repl.Run(ctx, repl.Config{
		Session: s,
		Factory: func(ctx context.Context) (*lang.Session, error) {
			return newSession(ctx)
		},
		HistoryPath: history,
		Logger:      log.Default(),
		Out:         std.out,
	})
}

// preload runs the statements of the source files into s. The first
// rejected statement is reported and fails the command.
func (r *Repl) preload(ctx context.Context, s *lang.Session) error {
	srcs, err := openSources(r.Sources)
	if err != nil {
		return err
	}
	defer srcs.Close()

	var rejected int

	preload := Eval{Sources: r.Sources}
	std := streamsFrom(ctx)
	std.out = io.Discard

	for _, src := range srcs {
		stop, err := preload.run(ctx, s, src, std, &rejected)
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
