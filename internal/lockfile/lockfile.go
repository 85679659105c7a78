// Package lockfile provides the fail-fast advisory lock spec.md §5
// recommends when concurrent commit/apply calls against the same working
// directory are possible, grounded on the teacher's sync command locking
// pattern (cmd/bd/sync.go).
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock wraps a single exclusive advisory lock file scoped to a chain's
// working directory.
type Lock struct {
	f *flock.Flock
}

// TryAcquire attempts to take the exclusive lock on workDir's lock file
// without blocking. It fails fast -- per spec.md §5, a commit or apply call
// owns the working directory for its duration, and a second caller must be
// told immediately rather than queued.
func TryAcquire(workDir string) (*Lock, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("lockfile: creating %q: %w", workDir, err)
	}
	path := filepath.Join(workDir, ".leech.lock")
	f := flock.New(path)
	locked, err := f.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lockfile: acquiring %q: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("lockfile: another commit or apply is already in progress on %q", workDir)
	}
	return &Lock{f: f}, nil
}

// Release unlocks the lock file. Safe to call once on a successfully
// acquired Lock.
func (l *Lock) Release() error {
	return l.f.Unlock()
}
