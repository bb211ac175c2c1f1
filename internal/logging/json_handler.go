package logging

import (
	"io"
	"log/slog"
)

// newJSONHandler wraps slog.NewJSONHandler with the level threshold shared
// across both handler implementations so callers don't duplicate
// HandlerOptions construction.
func newJSONHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}
