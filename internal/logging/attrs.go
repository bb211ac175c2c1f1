package logging

import (
	"log/slog"
	"time"
)

// Field name constants used across packages so grep/aggregation stays stable.
const (
	FieldEventType  = "event_type"
	FieldAccount    = "account"
	FieldHost       = "host"
	FieldPostID     = "post_id"
	FieldMediaURL   = "media_url"
	FieldRunID      = "run_id"
	FieldDurationMS = "duration_ms"
	FieldBytes      = "bytes"
	FieldAttempt    = "attempt"
)

// EventType returns the conventional event_type attribute.
func EventType(name string) slog.Attr { return slog.String(FieldEventType, name) }

// String is a thin alias kept for call-site consistency with the other
// typed constructors below.
func String(key, value string) slog.Attr { return slog.String(key, value) }

// Int mirrors slog.Int.
func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

// Int64 mirrors slog.Int64.
func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

// Bool mirrors slog.Bool.
func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

// Duration mirrors slog.Duration.
func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

// Error attaches err under the conventional "error" key. A nil err is still
// logged as an explicit empty string so a missed nil-check upstream is
// visible in the log line rather than silently dropped.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Any mirrors slog.Any for values with no dedicated constructor.
func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

// Account returns the conventional account-handle attribute.
func Account(handle string) slog.Attr { return slog.String(FieldAccount, handle) }

// Host returns the conventional source-host attribute.
func Host(host string) slog.Attr { return slog.String(FieldHost, host) }

// RunID returns the conventional sync-run-id attribute.
func RunID(id string) slog.Attr { return slog.String(FieldRunID, id) }

// PostID returns the conventional source-post-id attribute.
func PostID(id string) slog.Attr { return slog.String(FieldPostID, id) }

// MediaURL returns the conventional media-url attribute.
func MediaURL(url string) slog.Attr { return slog.String(FieldMediaURL, url) }

// Bytes returns the conventional byte-count attribute.
func Bytes(n int64) slog.Attr { return slog.Int64(FieldBytes, n) }
