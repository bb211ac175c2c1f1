package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AccountCursor tracks per-account paging progress. A zero-valued cursor
// (all fields empty/false) represents an account never seen before.
type AccountCursor struct {
	Handle            string
	LatestSeenPostID  string
	BackfillCursor    string
	BackfillDone      bool
	RateLimitedUntil  *time.Time
	UpdatedAt         time.Time
}

// InCooldown reports whether RateLimitedUntil is set and still in the future.
func (c AccountCursor) InCooldown(now time.Time) bool {
	return c.RateLimitedUntil != nil && c.RateLimitedUntil.After(now)
}

// GetAccount returns the stored cursor for handle, or a zero-valued cursor
// if the account has never been persisted.
func (s *Store) GetAccount(ctx context.Context, handle string) (AccountCursor, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `
		SELECT handle, latest_seen_post_id, backfill_cursor, backfill_done, rate_limited_until, updated_at
		FROM account_cursor WHERE handle = ?`, handle)

	var (
		h                sql.NullString
		latestSeen       sql.NullString
		backfillCursor   sql.NullString
		backfillDone     int64
		rateLimitedUntil sql.NullString
		updatedAt        sql.NullString
	)
	err := row.Scan(&h, &latestSeen, &backfillCursor, &backfillDone, &rateLimitedUntil, &updatedAt)
	if err == sql.ErrNoRows {
		return AccountCursor{Handle: handle}, nil
	}
	if err != nil {
		return AccountCursor{}, fmt.Errorf("get account cursor %q: %w", handle, err)
	}

	cursor := AccountCursor{
		Handle:           handle,
		LatestSeenPostID: latestSeen.String,
		BackfillCursor:   backfillCursor.String,
		BackfillDone:     backfillDone != 0,
	}
	if rateLimitedUntil.Valid {
		if t, perr := parseTimeString(rateLimitedUntil.String); perr == nil {
			cursor.RateLimitedUntil = &t
		}
	}
	if t, perr := parseTimeString(updatedAt.String); perr == nil {
		cursor.UpdatedAt = t
	}
	return cursor, nil
}

// PutAccount upserts cursor by handle. UpdatedAt defaults to now if unset.
func (s *Store) PutAccount(ctx context.Context, cursor AccountCursor) error {
	if cursor.UpdatedAt.IsZero() {
		cursor.UpdatedAt = time.Now().UTC()
	}
	_, err := s.execWithRetry(ensureContext(ctx), `
		INSERT INTO account_cursor (handle, latest_seen_post_id, backfill_cursor, backfill_done, rate_limited_until, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(handle) DO UPDATE SET
			latest_seen_post_id = excluded.latest_seen_post_id,
			backfill_cursor     = excluded.backfill_cursor,
			backfill_done       = excluded.backfill_done,
			rate_limited_until  = excluded.rate_limited_until,
			updated_at          = excluded.updated_at`,
		cursor.Handle,
		nullableString(cursor.LatestSeenPostID),
		nullableString(cursor.BackfillCursor),
		boolToInt(cursor.BackfillDone),
		nullableTime(cursor.RateLimitedUntil),
		cursor.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put account cursor %q: %w", cursor.Handle, err)
	}
	return nil
}
