// Package logging builds the structured logger shared by the sync daemon,
// its adapters, and the CLI.
//
// Logs are emitted through log/slog. Two handlers are available: a colorized
// console handler for interactive use and a JSON handler for production/
// daemon use, selected by LOG_FORMAT. Field-constructor helpers keep call
// sites consistent (logging.String, logging.Error, logging.Duration, ...),
// and logging.EventType attaches an event_type attribute to the events a
// call site marks with it, so those lines can be grepped or aggregated by
// kind.
package logging
