package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AcquireLock atomically observes the current lock row for jobName; if
// absent or expired it writes (jobName, now+ttl, holderID) and returns true.
// Two concurrent callers racing this method cannot both succeed: the write
// happens inside a BEGIN IMMEDIATE transaction, which takes SQLite's
// reserved lock up front rather than promoting from a shared read lock.
func (s *Store) AcquireLock(ctx context.Context, jobName, holderID string, ttl time.Duration) (bool, error) {
	ctx = ensureContext(ctx)
	var acquired bool
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		now := time.Now().UTC()
		var lockedUntilRaw string
		row := tx.QueryRowContext(ctx, "SELECT locked_until FROM job_lock WHERE job_name = ?", jobName)
		switch scanErr := row.Scan(&lockedUntilRaw); scanErr {
		case sql.ErrNoRows:
			// absent: free to acquire
		case nil:
			lockedUntil, perr := parseTimeString(lockedUntilRaw)
			if perr == nil && lockedUntil.After(now) {
				acquired = false
				return tx.Commit()
			}
		default:
			return fmt.Errorf("read job lock %q: %w", jobName, scanErr)
		}

		newLockedUntil := now.Add(ttl).Format(time.RFC3339Nano)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO job_lock (job_name, locked_until, holder_id) VALUES (?, ?, ?)
			ON CONFLICT(job_name) DO UPDATE SET locked_until = excluded.locked_until, holder_id = excluded.holder_id`,
			jobName, newLockedUntil, holderID,
		); err != nil {
			return fmt.Errorf("write job lock %q: %w", jobName, err)
		}
		acquired = true
		return tx.Commit()
	})
	if err != nil {
		return false, err
	}
	return acquired, nil
}

// ReleaseLock deletes the lock row for jobName only when holderID matches
// the current holder. A mismatched or absent holder is a silent no-op.
func (s *Store) ReleaseLock(ctx context.Context, jobName, holderID string) error {
	_, err := s.execWithRetry(ensureContext(ctx),
		"DELETE FROM job_lock WHERE job_name = ? AND holder_id = ?", jobName, holderID)
	if err != nil {
		return fmt.Errorf("release job lock %q: %w", jobName, err)
	}
	return nil
}
