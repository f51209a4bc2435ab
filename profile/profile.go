package profile

// Stopper ends a profiling run and flushes its output.
type Stopper interface{ Stop() }

// Profiler describes one profiling run.
type Profiler struct {
	// Mode is one of [Modes]. Profiling is disabled when it is empty or
	// unknown.
	Mode string
	// Path is the output directory. A temporary directory is used when it
	// is empty.
	Path string
	// Quiet suppresses the messages pkg/profile prints on start and stop.
	Quiet bool
}

// Option configures a [Profiler].
type Option func(*Profiler)

// WithMode sets the profiling mode.
func WithMode(mode string) Option { return func(p *Profiler) { p.Mode = mode } }

// WithPath sets the output directory.
func WithPath(path string) Option { return func(p *Profiler) { p.Path = path } }

// WithQuiet suppresses start and stop messages.
func WithQuiet(quiet bool) Option { return func(p *Profiler) { p.Quiet = quiet } }

// New returns a Profiler configured by opts.
func New(opts ...Option) Profiler {
	var p Profiler

	for _, opt := range opts {
		opt(&p)
	}

	return p
}

// Enabled reports whether Start would profile anything.
func (p Profiler) Enabled() bool {
	_, ok := modes[p.Mode]

	return ok
}

// Start begins profiling. The result is always safe to stop, even when
// profiling is disabled.
func (p Profiler) Start() Stopper {
	if !p.Enabled() {
		return nop{}
	}

	return start(p)
}

type nop struct{}

func (nop) Stop() {}
