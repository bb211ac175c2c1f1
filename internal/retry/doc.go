// Package retry factors the sync engine's two bounded-retry call sites
// (media download, sink upload) into one exponential-backoff helper with
// an injectable sleeper, so both are testable without real sleeps.
package retry
