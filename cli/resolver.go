package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/lam/cli/cmd"
	"github.com/ardnew/lam/lang"
	"github.com/ardnew/lam/lang/value"
	"github.com/ardnew/lam/log"
)

// resolve returns a [kong.ConfigurationLoader] for configuration files
// written in lam itself.
//
// Each line is run as a statement in a fresh atomic session. Every global
// name the file assigns to a Number, String or Boolean becomes a flag value;
// closures and the library's own modules are ignored. Rejected statements
// are logged and skipped. Identifiers cannot contain '-' or '_', so flag
// names are written in camel case:
//
//	logLevel = "debug"
//	logPretty = false
//	atomic = true
//
// Command-line flags override config file values.
func resolve(ctx context.Context) func(r io.Reader) (kong.Resolver, error) {
	return func(r io.Reader) (kong.Resolver, error) {
		s, err := lang.NewSession(ctx,
			lang.WithLogger(log.Default()),
			lang.WithAtomic(true),
		)
		if err != nil {
			return nil, err
		}

		builtin := make(map[string]bool)
		for _, b := range s.Names() {
			builtin[b.Name] = true
		}

		for stmt, err := range lang.Statements(r) {
			if err != nil {
				return nil, err
			}

			if _, ok := stmt.Directive(); ok {
				continue
			}

			res, err := s.Run(ctx, stmt.Text)
			if err == nil && res.Accepted() {
				continue
			}

			attrs := []slog.Attr{slog.Int("line", stmt.Line)}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}

			for _, d := range res.Diagnostics {
				attrs = append(attrs, slog.Any("diagnostic", d))
			}

			log.WarnContext(ctx, "config statement rejected", attrs...)
		}

		cfg := make(config)

		for _, b := range s.Names() {
			if builtin[b.Name] {
				continue
			}

			_, v, ok := s.Lookup(b.Name)
			if !ok || v == nil || value.Callable(v) {
				continue
			}

			switch x := value.Go(v).(type) {
			case uint64:
				// Kong parses numeric flags from strings.
				cfg[b.Name] = strconv.FormatUint(x, 10)
			case nil:
			default:
				cfg[b.Name] = x
			}
		}

		return cfg, nil
	}
}

// resolveYAML is a [kong.ConfigurationLoader] for a flat YAML mapping of
// flag names to values.
func resolveYAML(r io.Reader) (kong.Resolver, error) {
	var raw map[string]any

	err := yaml.NewDecoder(r).Decode(&raw)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	cfg := make(config, len(raw))

	for k, v := range raw {
		switch x := v.(type) {
		case uint64:
			cfg[k] = strconv.FormatUint(x, 10)
		case int64:
			cfg[k] = strconv.FormatInt(x, 10)
		case float64:
			cfg[k] = strconv.FormatFloat(x, 'f', -1, 64)
		case []any:
			part := make([]string, 0, len(x))
			for _, e := range x {
				if s, ok := e.(string); ok {
					part = append(part, s)
				}
			}

			cfg[k] = strings.Join(part, ",")
		default:
			cfg[k] = x
		}
	}

	return cfg, nil
}

// config implements [kong.Resolver] over a flat map of flag values.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver]. A flag named "log-level" matches the
// keys "log-level", "log_level" and "logLevel", in that order.
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	for _, key := range flagKeys(flag.Name) {
		if v, ok := r[key]; ok {
			return v, nil
		}
	}

	return nil, nil
}

// flagKeys returns the spellings of a hyphenated flag name accepted as
// configuration keys.
func flagKeys(name string) []string {
	return []string{name, strings.ReplaceAll(name, "-", "_"), cmd.ConfigKey(name)}
}
