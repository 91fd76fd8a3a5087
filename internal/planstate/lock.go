package planstate

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the advisory lock kept inside each plan directory.
const LockFileName = "plan.lock"

// Lock is an advisory lock over one plan directory. The snapshot assumes a
// single pipeline driver per plan; this enforces it.
type Lock struct {
	lock *flock.Flock
	path string
}

// Acquire takes the plan directory lock without blocking. It fails when
// another driver already owns the plan.
func Acquire(planDir string) (*Lock, error) {
	path := filepath.Join(planDir, LockFileName)
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire plan lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("plan directory %s is owned by another driver", planDir)
	}
	return &Lock{lock: lock, path: path}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
