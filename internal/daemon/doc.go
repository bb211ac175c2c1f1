// Package daemon coordinates the long-running archivist process.
//
// It runs an already-built scheduler in a background goroutine under an
// OS-level process lock (see internal/lockfile) so only one archivist
// process runs against a given state database and scratch directory at a
// time. Building the state store, source adapter, sink, and sync engine is
// done by internal/daemonrun.
//
// The engine and scheduler packages own their own algorithms while the
// daemon focuses on startup and shutdown.
package daemon
