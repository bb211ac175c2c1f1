// Package lockfile enforces single-instance execution of the archivist
// daemon process on a host, independent of the SQLite job lock the sync
// engine uses to coordinate a single run. The job lock stops two runs from
// racing; this lock stops two daemon processes from starting against the
// same state database and scratch directory in the first place.
package lockfile
