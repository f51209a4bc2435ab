package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/lam/log"
	"github.com/ardnew/lam/profile"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating YAML and JSON configuration files.
const defaultConfigIndent = 2

// Init generates a configuration file with current flag values.
type Init struct {
	Force  bool   `help:"Overwrite existing configuration file" short:"f"`
	Format string `help:"Configuration file format"             short:"F" default:"lam" enum:"lam,yaml,json"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	if i.Format != "lam" {
		confPath += "." + i.Format
	}

	// Check if file exists and force not set
	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	data, err := i.encode(ctx, i.flagValues(ctx))
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	err = os.WriteFile(confPath, data, 0o600)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
		slog.String("format", i.Format),
	)

	return nil
}

// setting is one flag and its current value.
type setting struct {
	name  string
	value any
}

// flagValues returns the current values of all configurable flags, in
// model order. Unset strings and empty lists are omitted.
func (i *Init) flagValues(ctx context.Context) []setting {
	ktx := kongContextFrom(ctx)

	ignore := []string{"help", "version", profile.Tag}

	var settings []setting

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(ignore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		switch v := normalize(ktx.FlagValue(flag)).(type) {
		case nil:
		case string:
			if v != "" {
				settings = append(settings, setting{flag.Name, v})
			}
		case []string:
			if len(v) > 0 {
				settings = append(settings, setting{flag.Name, v})
			}
		default:
			settings = append(settings, setting{flag.Name, v})
		}
	}

	return settings
}

// normalize converts values of named string and bool types, such as enum
// flags, to their underlying type.
func normalize(v any) any {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	default:
		return v
	}
}

// encode renders settings in the configured format.
func (i *Init) encode(ctx context.Context, settings []setting) ([]byte, error) {
	switch i.Format {
	case "yaml":
		m := yaml.MapSlice{}
		for _, s := range settings {
			m = append(m, yaml.MapItem{Key: s.name, Value: s.value})
		}

		data, err := yaml.MarshalContext(ctx, m, yaml.Indent(defaultConfigIndent))
		if err != nil {
			return nil, ErrYAMLMarshal.Wrap(err)
		}

		return data, nil

	case "json":
		m := make(map[string]any, len(settings))
		for _, s := range settings {
			m[s.name] = s.value
		}

		data, err := json.MarshalIndent(m, "", strings.Repeat(" ", defaultConfigIndent))
		if err != nil {
			return nil, ErrJSONMarshal.Wrap(err)
		}

		return append(data, '\n'), nil

	default:
		var sb strings.Builder

		for _, s := range settings {
			lit, ok := literal(s.value)
			if !ok {
				log.WarnContext(ctx, "flag not representable in lam",
					slog.String("flag", s.name),
					slog.Any("value", s.value),
				)

				continue
			}

			fmt.Fprintf(&sb, "%s = %s\n", ConfigKey(s.name), lit)
		}

		return []byte(sb.String()), nil
	}
}

// literal returns the lam source text of a flag value. Lists are joined
// with commas into one String, matching how list flags are parsed.
func literal(v any) (string, bool) {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x), true
	case string:
		if strings.ContainsAny(x, "\"\n\r") {
			return "", false
		}

		return `"` + x + `"`, true
	case []string:
		return literal(strings.Join(x, ","))
	case int:
		if x < 0 {
			return "", false
		}

		return strconv.Itoa(x), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	default:
		return "", false
	}
}

// ConfigKey returns the identifier used for a hyphenated flag name in a
// lam configuration file, e.g. "log-level" becomes "logLevel".
func ConfigKey(flag string) string {
	var sb strings.Builder

	upper := false

	for _, c := range flag {
		switch {
		case c == '-' || c == '_':
			upper = true
		case upper:
			sb.WriteRune(unicode.ToUpper(c))
			upper = false
		default:
			sb.WriteRune(c)
		}
	}

	return sb.String()
}
