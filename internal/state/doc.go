// Package state persists the sync daemon's durable data in a single SQLite
// file: one row per configured account (the cursor), one row per uploaded or
// deliberately-skipped media item (the dedupe registry), and a single-row
// job lock used to keep concurrent runs from overlapping.
//
// The database is opened in WAL mode with a busy_timeout pragma; write
// statements and lock acquisition that hit SQLITE_BUSY are retried up to
// five times with exponential backoff before the error is returned, since a
// run-long lock hold is expected to occasionally contend with a concurrent
// reader. Reads are not retried.
package state
