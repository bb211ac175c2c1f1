package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewConsoleWritesLevelAndMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, Format: "console", Level: slog.LevelDebug})
	logger.Info("sync started", Account("acme"), EventType("run_start"))

	out := buf.String()
	if !strings.Contains(out, "sync started") {
		t.Fatalf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "account=acme") {
		t.Fatalf("expected account attr in output, got %q", out)
	}
	if !strings.Contains(out, "event_type=run_start") {
		t.Fatalf("expected event_type attr in output, got %q", out)
	}
}

func TestNewConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, Format: "console", Level: slog.LevelWarn})
	logger.Info("should be dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be suppressed at warn level, got %q", buf.String())
	}
	logger.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected warn message in output, got %q", buf.String())
	}
}

func TestNewJSONWritesValidAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, Format: "json", Level: slog.LevelInfo})
	logger.Error("download failed", Error(errBoom), Host("host-a"))

	out := buf.String()
	if !strings.Contains(out, `"host":"host-a"`) {
		t.Fatalf("expected host field in json output, got %q", out)
	}
	if !strings.Contains(out, `"error":"boom"`) {
		t.Fatalf("expected error field in json output, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

type boomError struct{}

func (boomError) Error() string { return "boom" }

var errBoom = boomError{}
