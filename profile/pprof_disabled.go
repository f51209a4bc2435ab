//go:build !pprof

package profile

var modes = map[string]struct{}{}

// Modes returns no modes when built without the pprof build tag.
func Modes() []string { return nil }

func start(Profiler) Stopper { return nop{} }
