package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.sqlite")
	store, err := Open(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGetAccountReturnsZeroValueWhenAbsent(t *testing.T) {
	store := openTestStore(t)
	cursor, err := store.GetAccount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if cursor.LatestSeenPostID != "" || cursor.BackfillDone {
		t.Fatalf("expected zero-valued cursor, got %+v", cursor)
	}
}

func TestPutAccountRoundTrips(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	rateLimited := time.Now().Add(time.Hour).UTC()
	want := AccountCursor{
		Handle:           "alice",
		LatestSeenPostID: "100",
		BackfillCursor:   "cursor-a",
		BackfillDone:     true,
		RateLimitedUntil: &rateLimited,
	}
	if err := store.PutAccount(ctx, want); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}

	got, err := store.GetAccount(ctx, "alice")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.LatestSeenPostID != want.LatestSeenPostID || got.BackfillCursor != want.BackfillCursor || !got.BackfillDone {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
	if got.RateLimitedUntil == nil || !got.RateLimitedUntil.Equal(rateLimited) {
		t.Fatalf("rate_limited_until mismatch: got %v, want %v", got.RateLimitedUntil, rateLimited)
	}
}

func TestPutAccountPersistsBackfillDone(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.PutAccount(ctx, AccountCursor{Handle: "alice", BackfillDone: true}); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}
	cursor, err := store.GetAccount(ctx, "alice")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !cursor.BackfillDone {
		t.Fatalf("expected backfill_done to stay true")
	}
}

func TestMediaDedupe(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := MediaKey("post-1", "https://example.test/a.jpg")

	uploaded, err := store.IsMediaUploaded(ctx, key)
	if err != nil {
		t.Fatalf("IsMediaUploaded: %v", err)
	}
	if uploaded {
		t.Fatalf("expected media to be unseen")
	}

	record := MediaRecord{
		MediaKey:       key,
		PostID:         "post-1",
		AccountHandle:  "alice",
		MediaURL:       "https://example.test/a.jpg",
		MediaType:      MediaPhoto,
		SinkMessageIDs: []string{"msg-1"},
		Status:         MediaUploaded,
	}
	if err := store.MarkMedia(ctx, record); err != nil {
		t.Fatalf("MarkMedia: %v", err)
	}

	uploaded, err = store.IsMediaUploaded(ctx, key)
	if err != nil {
		t.Fatalf("IsMediaUploaded: %v", err)
	}
	if !uploaded {
		t.Fatalf("expected media to be marked uploaded")
	}

	got, err := store.GetMedia(ctx, key)
	if err != nil {
		t.Fatalf("GetMedia: %v", err)
	}
	if got == nil || got.Status != MediaUploaded || len(got.SinkMessageIDs) != 1 {
		t.Fatalf("unexpected media record: %+v", got)
	}
}

func TestAcquireLockExcludesConcurrentCaller(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ok, err := store.AcquireLock(ctx, "daily-sync", "holder-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed: ok=%v err=%v", ok, err)
	}

	ok, err = store.AcquireLock(ctx, "daily-sync", "holder-b", time.Minute)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if ok {
		t.Fatalf("expected second concurrent acquire to fail")
	}

	// mismatched holder release is a no-op
	if err := store.ReleaseLock(ctx, "daily-sync", "holder-b"); err != nil {
		t.Fatalf("ReleaseLock (mismatched): %v", err)
	}
	ok, err = store.AcquireLock(ctx, "daily-sync", "holder-b", time.Minute)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if ok {
		t.Fatalf("expected lock to still be held after mismatched release")
	}

	if err := store.ReleaseLock(ctx, "daily-sync", "holder-a"); err != nil {
		t.Fatalf("ReleaseLock: %v", err)
	}
	ok, err = store.AcquireLock(ctx, "daily-sync", "holder-b", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected acquire after release to succeed: ok=%v err=%v", ok, err)
	}
}

func TestAcquireLockReclaimsExpiredLock(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ok, err := store.AcquireLock(ctx, "daily-sync", "holder-a", -time.Second)
	if err != nil || !ok {
		t.Fatalf("expected acquire to succeed: ok=%v err=%v", ok, err)
	}

	ok, err = store.AcquireLock(ctx, "daily-sync", "holder-b", time.Minute)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if !ok {
		t.Fatalf("expected expired lock to be reclaimable")
	}
}
