package lockfile

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrHeld is returned by Acquire when another process already holds the lock.
var ErrHeld = errors.New("another archivist process is already running")

// Lock wraps an OS-level flock at a fixed path.
type Lock struct {
	path string
	fl   *flock.Flock
}

// New returns a Lock bound to path. Acquire must be called before the lock
// takes effect.
func New(path string) *Lock {
	return &Lock{path: path, fl: flock.New(path)}
}

// Path returns the filesystem path backing the lock.
func (l *Lock) Path() string { return l.path }

// Acquire takes the lock without blocking, returning ErrHeld if another
// process already holds it.
func (l *Lock) Acquire() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquire process lock at %s: %w", l.path, err)
	}
	if !ok {
		return ErrHeld
	}
	return nil
}

// Release drops the lock. Safe to call even if Acquire was never called or
// failed.
func (l *Lock) Release() error {
	if !l.fl.Locked() {
		return nil
	}
	return l.fl.Unlock()
}
