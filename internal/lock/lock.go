// Package lock guards a datadir against being opened by two headerdb
// processes at once, the same role go-ethereum's node package gives its
// own LOCK file.
package lock

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// fileName is the lock file's name inside the datadir, matching the
// convention go-ethereum's node package uses for its instance directory.
const fileName = "LOCK"

// DirLock holds an exclusive, advisory lock on a datadir for the lifetime
// of the process that acquired it.
type DirLock struct {
	flock *flock.Flock
}

// Acquire takes an exclusive lock on datadir, failing fast rather than
// blocking if another process already holds it — the single-writer
// contract only needs one process at a time, not a queue of waiters.
func Acquire(datadir string) (*DirLock, error) {
	f := flock.New(filepath.Join(datadir, fileName))
	locked, err := f.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock: datadir %s is already in use by another headerdb process", datadir)
	}
	return &DirLock{flock: f}, nil
}

// Release drops the lock. Safe to call once; calling it twice is a no-op
// error that callers may safely ignore.
func (l *DirLock) Release() error {
	return l.flock.Unlock()
}
