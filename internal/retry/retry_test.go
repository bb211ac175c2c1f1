package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsWithoutRetry(t *testing.T) {
	var slept []time.Duration
	p := New(3, time.Second, 2, WithSleeper(func(d time.Duration) { slept = append(slept, d) }))

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if len(slept) != 0 {
		t.Fatalf("expected no sleeps, got %v", slept)
	}
}

func TestDoRetriesWithBackoff(t *testing.T) {
	var slept []time.Duration
	p := New(3, time.Second, 2, WithSleeper(func(d time.Duration) { slept = append(slept, d) }))

	calls := 0
	boom := errors.New("boom")
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return boom
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(slept) != len(want) || slept[0] != want[0] || slept[1] != want[1] {
		t.Fatalf("slept = %v, want %v", slept, want)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	p := New(2, time.Millisecond, 2, WithSleeper(func(time.Duration) {}))
	boom := errors.New("boom")
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Do() = %v, want %v", err, boom)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestDoAbortsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(3, time.Millisecond, 2, WithSleeper(func(time.Duration) {}))
	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		return nil
	})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if calls != 0 {
		t.Fatalf("expected fn not to be called, got %d calls", calls)
	}
}
