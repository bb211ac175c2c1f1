package logging

import (
	"io"
	"log/slog"
)

// Options controls logger construction. Format is "console" or "json";
// any other value falls back to "console".
type Options struct {
	Writer io.Writer
	Format string
	Level  slog.Level
}

// New builds an *slog.Logger per opts. A nil Writer defaults to io.Discard
// so callers in tests don't need to wire one up explicitly.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = io.Discard
	}
	var handler slog.Handler
	switch opts.Format {
	case "json":
		handler = newJSONHandler(w, opts.Level)
	default:
		handler = newPrettyHandler(w, opts.Level)
	}
	return slog.New(handler)
}
