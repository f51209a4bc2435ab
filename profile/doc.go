// Package profile runs lam under [github.com/pkg/profile].
//
// Profiling is compiled in only with the "pprof" build tag. Without it
// [Modes] is empty and every [Profiler] is a no-op, so callers never need
// their own build constraints:
//
//	go build -tags pprof .
//	./lam --pprof-mode cpu eval script.lam
//	go tool pprof ./lam ~/.cache/lam/pprof/cpu.pprof
//
// The cpu and clock modes show where the parser, binder and evaluator spend
// time. The heap and allocs modes show the growth of the scope chain over a
// long session, since frames are never reclaimed.
package profile

// Tag is the build tag that enables profiling. It also prefixes the
// profiling flags.
const Tag = "pprof"
