package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/mattn/go-isatty"
)

// prettyHandler renders log records as a single line of
// "HH:MM:SS.mmm LEVEL message key=value ..." text, colorizing the level
// label when the destination is a terminal.
type prettyHandler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  slog.Leveler
	color  bool
	attrs  []slog.Attr
	group  string
}

// newPrettyHandler builds a console handler writing to w. Color is enabled
// automatically when w is a *os.File attached to a terminal.
func newPrettyHandler(w io.Writer, level slog.Leveler) *prettyHandler {
	color := false
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &prettyHandler{mu: &sync.Mutex{}, out: w, level: level, color: color}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.level != nil {
		min = h.level.Level()
	}
	return level >= min
}

func (h *prettyHandler) Handle(_ context.Context, rec slog.Record) error {
	var buf bytes.Buffer
	buf.WriteString(formatConsoleTime(rec.Time))
	buf.WriteByte(' ')
	buf.WriteString(h.levelLabel(rec.Level))
	buf.WriteByte(' ')
	buf.WriteString(rec.Message)

	kvs := make(map[string]string, rec.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		h.flattenAttr(kvs, h.group, a)
	}
	rec.Attrs(func(a slog.Attr) bool {
		h.flattenAttr(kvs, h.group, a)
		return true
	})
	for _, k := range sortedKeys(kvs) {
		fmt.Fprintf(&buf, " %s=%s", k, kvs[k])
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	next := *h
	if next.group == "" {
		next.group = name
	} else {
		next.group = next.group + "." + name
	}
	return &next
}

func (h *prettyHandler) flattenAttr(dst map[string]string, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	key := appendPrefix(prefix, a.Key)
	if a.Value.Kind() == slog.KindGroup {
		for _, sub := range a.Value.Group() {
			h.flattenAttr(dst, key, sub)
		}
		return
	}
	dst[key] = formatValue(a.Value.Any())
}

func appendPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func (h *prettyHandler) levelLabel(level slog.Level) string {
	label := level.String()
	if !h.color {
		return label
	}
	switch {
	case level >= slog.LevelError:
		return "\x1b[31m" + label + "\x1b[0m"
	case level >= slog.LevelWarn:
		return "\x1b[33m" + label + "\x1b[0m"
	case level >= slog.LevelInfo:
		return "\x1b[36m" + label + "\x1b[0m"
	default:
		return "\x1b[90m" + label + "\x1b[0m"
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
