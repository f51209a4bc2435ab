package log

import "io"

// Option adjusts the configuration of a [Logger] as it is created.
type Option func(*settings)

// WithOutput sets the writer records go to. A nil writer discards them.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w == nil {
			w = io.Discard
		}

		s.output = w
	}
}

// WithLevel sets the minimum level of records that are written.
func WithLevel(level Level) Option {
	return func(s *settings) { s.level = level }
}

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return func(s *settings) { s.format = format }
}

// WithTimeLayout sets the timestamp layout. It is either a case-insensitive
// name such as "RFC3339", "Kitchen" or "ms", or a layout passed verbatim to
// [time.Time.Format]. An empty layout, or "none", omits timestamps.
func WithTimeLayout(layout string) Option {
	return func(s *settings) { s.formatTime = timeFormatter(layout) }
}

// WithCaller includes the source location of each logging call.
func WithCaller(enable bool) Option {
	return func(s *settings) { s.caller = enable }
}

// WithPretty selects the human-oriented handler: unquoted values, nested
// groups on their own lines for JSON, and colors when the output is a
// terminal.
func WithPretty(enable bool) Option {
	return func(s *settings) { s.pretty = enable }
}
