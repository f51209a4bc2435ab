package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of the pretty handler. Colors are dropped when
// the output is not a terminal.
type palette struct {
	key, str, num, yes, no, time, dur lipgloss.Style
	levels                            map[slog.Level]lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	color := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		key:  color("8"),
		str:  color("6"),
		num:  color("3"),
		yes:  color("2"),
		no:   color("1"),
		time: color("4"),
		dur:  color("5"),
		levels: map[slog.Level]lipgloss.Style{
			slog.Level(LevelTrace): color("5"),
			slog.LevelDebug:        color("4"),
			slog.LevelInfo:         color("2"),
			slog.LevelWarn:         color("3").Bold(true),
			slog.LevelError:        color("1").Bold(true),
		},
	}
}

// level returns the style of the nearest named level at or below l.
func (p palette) level(l slog.Level) lipgloss.Style {
	style := p.levels[slog.Level(LevelTrace)]

	for _, named := range levels {
		if slog.Level(named) <= l {
			style = p.levels[slog.Level(named)]
		}
	}

	return style
}

// sink is the writer shared by a pretty handler and its derivatives.
type sink struct {
	mu      sync.Mutex
	w       io.Writer
	palette palette
}

// prettyHandler renders records for people rather than machines: values
// are unquoted and colored, and in JSON format groups nest on their own
// lines. Values implementing [slog.LogValuer], such as diagnostics and
// errors, are resolved first.
type prettyHandler struct {
	opts   *slog.HandlerOptions
	format Format
	out    *sink
	attrs  []slog.Attr // from WithAttrs, already nested in their groups
	groups []string
}

func newPrettyHandler(w io.Writer, format Format, opts *slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{
		opts:   opts,
		format: format,
		out:    &sink{w: w, palette: newPalette(w)},
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}

	return level >= threshold
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	c := *h
	c.attrs = append(slices.Clip(h.attrs), nest(h.groups, attrs)...)

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = append(slices.Clip(h.groups), name)

	return &c
}

// nest wraps attrs in the named groups, outermost first.
func nest(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(attrs) == 0 {
		return nil
	}

	for _, g := range slices.Backward(groups) {
		attrs = []slog.Attr{{Key: g, Value: slog.GroupValue(attrs...)}}
	}

	return attrs
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var head []slog.Attr

	for _, a := range []slog.Attr{
		slog.Time(slog.TimeKey, r.Time),
		slog.Any(slog.LevelKey, r.Level),
	} {
		if r.Time.IsZero() && a.Key == slog.TimeKey {
			continue
		}

		if h.opts.ReplaceAttr != nil {
			a = h.opts.ReplaceAttr(nil, a)
		}

		if a.Key != "" {
			head = append(head, a)
		}
	}

	if h.opts.AddSource && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		head = append(head, slog.String(slog.SourceKey, frame.File+":"+strconv.Itoa(frame.Line)))
	}

	head = append(head, slog.String(slog.MessageKey, r.Message))

	body := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		body = append(body, a)

		return true
	})

	all := slices.Concat(head, h.attrs, nest(h.groups, body))

	var buf bytes.Buffer

	p := h.out.palette
	if h.format == FormatJSON {
		writeObject(&buf, p, r.Level, all, 1)
	} else {
		writeFlat(&buf, p, r.Level, "", all)
	}

	buf.WriteByte('\n')

	h.out.mu.Lock()
	defer h.out.mu.Unlock()

	_, err := h.out.w.Write(buf.Bytes())

	return err
}

// writeFlat writes attrs as space-separated key=value pairs. Group members
// are qualified by the group name.
func writeFlat(buf *bytes.Buffer, p palette, level slog.Level, prefix string, attrs []slog.Attr) {
	for _, a := range attrs {
		a.Value = a.Value.Resolve()

		if a.Equal(slog.Attr{}) {
			continue
		}

		key := prefix + a.Key

		if a.Value.Kind() == slog.KindGroup {
			sub := prefix
			if a.Key != "" {
				sub = key + "."
			}

			writeFlat(buf, p, level, sub, a.Value.Group())

			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(p.key.Render(key))
		buf.WriteByte('=')
		writeValue(buf, p, level, prefix == "" && a.Key == slog.LevelKey, a.Value)
	}
}

// writeObject writes attrs as an indented object at the given depth.
func writeObject(buf *bytes.Buffer, p palette, level slog.Level, attrs []slog.Attr, depth int) {
	indent := strings.Repeat("  ", depth)

	buf.WriteString("{\n")

	first := true

	for _, a := range attrs {
		a.Value = a.Value.Resolve()

		if a.Equal(slog.Attr{}) {
			continue
		}

		if !first {
			buf.WriteString(",\n")
		}

		first = false

		buf.WriteString(indent)
		buf.WriteString(p.key.Render(a.Key))
		buf.WriteString(": ")

		if a.Value.Kind() == slog.KindGroup {
			writeObject(buf, p, level, a.Value.Group(), depth+1)

			continue
		}

		writeValue(buf, p, level, depth == 1 && a.Key == slog.LevelKey, a.Value)
	}

	buf.WriteString("\n")
	buf.WriteString(strings.Repeat("  ", depth-1))
	buf.WriteString("}")
}

// writeValue writes v unquoted in the style of its kind. The level
// attribute is styled by the record level rather than by its value.
func writeValue(buf *bytes.Buffer, p palette, level slog.Level, isLevel bool, v slog.Value) {
	var style lipgloss.Style

	text := v.String()

	switch v.Kind() {
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		style = p.num
	case slog.KindBool:
		style = p.no
		if v.Bool() {
			style = p.yes
		}
	case slog.KindDuration:
		style = p.dur
	case slog.KindTime:
		style = p.time
	default:
		style = p.str
	}

	if isLevel {
		style = p.level(level)
		if l, ok := v.Any().(slog.Level); ok {
			text = strings.ToUpper(Level(l).String())
		}
	}

	buf.WriteString(style.Render(text))
}
