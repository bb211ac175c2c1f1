package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"archivist/internal/lockfile"
	"archivist/internal/logging"
	"archivist/internal/scheduler"
)

// Daemon wires the scheduler to a single-instance guard and owns the
// background goroutine's lifecycle.
type Daemon struct {
	logger *slog.Logger
	sched  *scheduler.Scheduler
	lock   *lockfile.Lock

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New constructs a Daemon. lockPath identifies the OS-level singleton guard;
// it is independent of the sync engine's SQLite job lock.
func New(sched *scheduler.Scheduler, lockPath string, logger *slog.Logger) (*Daemon, error) {
	if sched == nil {
		return nil, errors.New("daemon requires a scheduler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		logger: logger,
		sched:  sched,
		lock:   lockfile.New(lockPath),
	}, nil
}

// Start acquires the process lock and launches the scheduler's tick loop in
// the background. It returns once the lock is held and the loop has started.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := d.lock.Acquire(); err != nil {
		if errors.Is(err, lockfile.ErrHeld) {
			return fmt.Errorf("another archivist daemon instance is already running (lock: %s)", d.lock.Path())
		}
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		d.sched.Run(runCtx)
	}()

	d.running.Store(true)
	d.logger.Info("archivist daemon started", logging.String("lock_path", d.lock.Path()))
	return nil
}

// Stop cancels the scheduler loop, waits for it to exit, and releases the
// process lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	if d.done != nil {
		<-d.done
	}
	if err := d.lock.Release(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("archivist daemon stopped")
}
