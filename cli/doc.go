// Package cli contains the command line interface for lam.
//
// # Usage
//
//	lam [flags] [repl]             interactive session (default)
//	lam [flags] eval [files...]    run statements from files or stdin
//	lam [flags] fmt MODE [files]   print statements as native, json, yaml or ast
//	lam [flags] init [--force]     write the configuration file
//
// # Configuration
//
// Flag defaults are read from the user configuration directory, for
// example ~/.config/lam on Linux. Three files are consulted, in order:
//
//   - config.json: a flat JSON object of flag names to values
//   - config.yaml: a flat YAML mapping of flag names to values
//   - config: statements in lam itself
//
// The lam configuration file is run in an atomic session. Every global
// name it assigns to a Number, String or Boolean sets the flag of the same
// name written in camel case:
//
//	logLevel = "debug"
//	atomic = true
//	pprofDir = "/tmp/lam"
//
// JSON and YAML keys may use the flag name as written on the command line
// or with underscores. Command-line flags override all files.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// Logger flags are scanned before the command line is parsed, so they take
// effect for errors reported during parsing.
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o lam .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: ~/.cache/lam/pprof)
package cli
