package retry

import (
	"context"
	"time"
)

// Policy describes a bounded exponential-backoff retry schedule.
type Policy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // delay before the first retry
	Factor      float64       // multiplier applied to the delay after each retry

	sleeper func(time.Duration)
}

// Option configures a Policy.
type Option func(*Policy)

// WithSleeper overrides the sleep implementation, letting tests fast-forward
// through backoff delays.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(p *Policy) { p.sleeper = sleeper }
}

// New builds a Policy with maxAttempts total tries (so maxAttempts-1
// retries), starting at baseDelay and multiplying by factor after each
// failed attempt.
func New(maxAttempts int, baseDelay time.Duration, factor float64, opts ...Option) Policy {
	p := Policy{MaxAttempts: maxAttempts, BaseDelay: baseDelay, Factor: factor}
	for _, opt := range opts {
		opt(&p)
	}
	if p.sleeper == nil {
		p.sleeper = func(d time.Duration) { time.Sleep(d) }
	}
	return p
}

// Do runs fn up to MaxAttempts times, sleeping BaseDelay * Factor^(attempt-1)
// between attempts. It returns the last error if every attempt fails, or nil
// as soon as fn succeeds. A canceled ctx aborts immediately.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	delay := p.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}
		p.sleeper(delay)
		delay = time.Duration(float64(delay) * p.Factor)
	}
	return lastErr
}
