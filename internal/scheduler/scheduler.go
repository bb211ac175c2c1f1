package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"archivist/internal/engine"
	"archivist/internal/logging"
	"archivist/internal/source"
)

// Runner is the subset of internal/engine's Engine the scheduler depends on.
type Runner interface {
	Run(ctx context.Context) (engine.RunSummary, error)
}

// Config parameterizes the daily trigger.
type Config struct {
	Location    *time.Location
	DailyHour   int
	DailyMinute int
	Tick        time.Duration
	RunOnStart  bool
}

// Scheduler drives a single-threaded daily wall-clock loop.
type Scheduler struct {
	cfg    Config
	runner Runner
	logger *slog.Logger

	now func() time.Time

	mu             sync.Mutex
	running        bool
	lastRunDateKey string
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the scheduler's notion of "now", for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New builds a Scheduler wired to a Runner.
func New(cfg Config, runner Runner, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{cfg: cfg, runner: runner, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type wallClock struct {
	dateKey string
	hour    int
	minute  int
}

func (s *Scheduler) currentWallClock() wallClock {
	now := s.now().In(s.cfg.Location)
	return wallClock{
		dateKey: now.Format("2006-01-02"),
		hour:    now.Hour(),
		minute:  now.Minute(),
	}
}

func (wc wallClock) due(hour, minute int) bool {
	return wc.hour > hour || (wc.hour == hour && wc.minute >= minute)
}

// Run starts the tick loop, optionally preceded by a run-on-start pass, and
// blocks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	if s.cfg.RunOnStart {
		s.maybeTrigger(ctx, true)
	}

	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick evaluates the due condition once and runs the engine if it fires.
func (s *Scheduler) Tick(ctx context.Context) {
	s.maybeTrigger(ctx, false)
}

func (s *Scheduler) maybeTrigger(ctx context.Context, forceRunOnStart bool) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("scheduler tick skipped: previous run still in flight")
		return
	}

	wc := s.currentWallClock()
	due := forceRunOnStart || wc.due(s.cfg.DailyHour, s.cfg.DailyMinute)
	if !due || wc.dateKey == s.lastRunDateKey {
		s.mu.Unlock()
		return
	}

	s.running = true
	s.mu.Unlock()

	s.logger.Info("scheduler triggering sync run", logging.String("date_key", wc.dateKey))
	summary, err := s.runner.Run(ctx)

	s.mu.Lock()
	s.running = false
	if err == nil && !summary.SkippedByLock {
		s.lastRunDateKey = wc.dateKey
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled sync run failed", logging.Error(err))
		if source.IsAuthError(err) {
			s.logger.Error("sync credentials appear invalid; re-run auth:telegram or refresh SOURCE_COOKIES_JSON")
		}
		return
	}
	if summary.SkippedByLock {
		s.logger.Info("scheduled sync run deferred: lock held by another process")
	}
}
