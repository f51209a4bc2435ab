// Package cmd implements the lam subcommands: eval, fmt, init and repl.
//
// Commands read the global session flags (extension libraries and atomic
// mode) from the context with [WithSessionConfig], and write to the
// standard streams unless [WithStreams] redirects them.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path
	// to the configuration file, without extension.
	ConfigIdentifier = "config"
)
