// Package log is the structured logger used throughout lam. It wraps
// [log/slog] with a trace level, named time layouts, and a pretty handler
// for terminals.
//
// A [Logger] is an immutable value: [Logger.Wrap] and [Logger.With] return
// new loggers, so a Logger can be shared between goroutines and stored in
// options without copying concerns. The zero Logger drops every record.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
//	logger = logger.With(slog.String("stage", "bind"))
//	logger.TraceContext(ctx, "statement bound", slog.Int("line", 3))
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug]. The language pipeline reports its
// internal steps (tokens, parse trees, scope pushes, invocations) at trace
// level, so a session is quiet unless asked otherwise.
//
// # Formats
//
// [FormatJSON] and [FormatText] select the slog handler. With [WithPretty]
// both are rendered for people instead: values unquoted, JSON groups nested
// on their own lines, and colors when the output is a terminal. Values
// implementing [slog.LogValuer], such as diagnostics and errors, are
// resolved into their fields.
//
// # Package Logger
//
// The package-level functions ([Info], [TraceContext], ...) write to a
// default logger reconfigured in place by [Config]. Components that accept
// an explicit Logger fall back to [Default].
package log
