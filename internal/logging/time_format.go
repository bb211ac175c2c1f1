package logging

import "time"

// consoleTimeFormat is used for the timestamp column of the console handler.
// It favors local wall-clock readability over the RFC3339Nano precision the
// JSON handler preserves for machine consumption.
const consoleTimeFormat = "15:04:05.000"

func formatConsoleTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format(consoleTimeFormat)
}
