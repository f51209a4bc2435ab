package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/lam/lang"
	"github.com/ardnew/lam/lang/library"
	"github.com/ardnew/lam/log"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type streamsKey struct{}

// streams are the writers commands print results and diagnostics to.
type streams struct {
	out, err io.Writer
}

// WithStreams returns a new context.Context whose commands write results
// to out and diagnostics to errOut instead of the standard streams.
func WithStreams(ctx context.Context, out, errOut io.Writer) context.Context {
	return context.WithValue(ctx, streamsKey{}, streams{out: out, err: errOut})
}

func streamsFrom(ctx context.Context) streams {
	s, ok := ctx.Value(streamsKey{}).(streams)
	if !ok {
		return streams{out: os.Stdout, err: os.Stderr}
	}

	return s
}

type sessionConfigKey struct{}

// SessionConfig holds the global flags that shape every [lang.Session] a
// command creates.
type SessionConfig struct {
	Library []string
	Atomic  bool
}

// WithSessionConfig returns a new context.Context containing cfg.
func WithSessionConfig(ctx context.Context, cfg SessionConfig) context.Context {
	return context.WithValue(ctx, sessionConfigKey{}, cfg)
}

func sessionConfigFrom(ctx context.Context) SessionConfig {
	cfg, _ := ctx.Value(sessionConfigKey{}).(SessionConfig)

	return cfg
}

// newSession creates a session using the extension libraries and atomic
// mode stored in ctx. Extra options are applied last.
func newSession(ctx context.Context, opts ...lang.Option) (*lang.Session, error) {
	cfg := sessionConfigFrom(ctx)

	var exts []library.Extension

	for _, path := range cfg.Library {
		x, err := library.ReadExtensions(ctx, path)
		if err != nil {
			return nil, ErrLibrary.With(slog.String("file", path)).Wrap(err)
		}

		exts = append(exts, x...)
	}

	s, err := lang.NewSession(ctx, append([]lang.Option{
		lang.WithLogger(log.Default()),
		lang.WithExtensions(exts...),
		lang.WithAtomic(cfg.Atomic),
	}, opts...)...)
	if err != nil {
		return nil, ErrLibrary.Wrap(err)
	}

	return s, nil
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// source is an open input stream and the name used to report positions
// within it.
type source struct {
	name string
	io.Reader
}

// sources is an ordered set of open inputs.
type sources []source

// Close closes every source other than stdin.
func (s sources) Close() error {
	var errs []error

	for _, src := range s {
		if c, ok := src.Reader.(io.Closer); ok && src.Reader != os.Stdin {
			errs = append(errs, c.Close())
		}
	}

	return errors.Join(errs...)
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// openSources opens each path in order. An empty list reads stdin.
//
// Paths naming the same file, whether through symlinks, relative paths or
// "/dev/stdin", are opened once. All occurrences of "-" collapse into a
// single stdin source placed last so it reads after all regular files.
func openSources(paths []string) (sources, error) {
	if len(paths) == 0 {
		return sources{{name: "<stdin>", Reader: os.Stdin}}, nil
	}

	var srcs sources

	seen := make(map[fileKey]struct{})

	stdinKey, hasStdinKey := fileKeyOf(os.Stdin)
	hasStdin := false

	for _, path := range paths {
		if path == stdinSource {
			hasStdin = true

			continue
		}

		file, key, err := openUniqueFile(path, seen)
		if err != nil {
			_ = srcs.Close()

			return nil, ErrOpenSource.With(slog.String("file", path)).Wrap(err)
		}

		if hasStdinKey && key == stdinKey {
			_ = file.Close()
			hasStdin = true

			continue
		}

		if file != nil {
			srcs = append(srcs, source{name: path, Reader: file})
		}
	}

	if hasStdin {
		srcs = append(srcs, source{name: "<stdin>", Reader: os.Stdin})
	}

	return srcs, nil
}

// openUniqueFile opens the file at path if it hasn't been seen before.
// A duplicate yields a nil file and no error.
func openUniqueFile(
	path string,
	seen map[fileKey]struct{},
) (*os.File, fileKey, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fileKey{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, fileKey{}, err
	}

	key, ok := fileKeyOf(file)
	if !ok {
		return file, key, nil
	}

	if _, exists := seen[key]; exists {
		_ = file.Close()

		return nil, key, nil
	}

	seen[key] = struct{}{}

	return file, key, nil
}

// fileKeyOf returns the device and inode of an open file.
func fileKeyOf(f *os.File) (key fileKey, ok bool) {
	info, err := f.Stat()
	if err != nil {
		return key, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}
