// Package scheduler runs a single-threaded wall-clock loop that triggers
// the sync engine once per configured day, in a named timezone, tolerating
// an overlapping in-flight run and an optional run-on-start pass.
package scheduler
