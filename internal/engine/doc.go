// Package engine implements the daily per-run sync algorithm: lock
// acquisition, per-account incremental/backfill fetch, candidate merge and
// budget-bounded selection, per-post download-then-send processing, and
// cursor persistence under rate-limit and generic-failure outcomes.
package engine
