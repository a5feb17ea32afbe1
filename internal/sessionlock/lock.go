// Package sessionlock provides an advisory lock preventing two tsugix
// pipeline runs from operating on the same root directory concurrently,
// since two concurrent runs could race on the same backup tree and
// stale-file detection.
//
// Built on github.com/nightlyone/lockfile: ErrBusy means another live
// process holds the lock; ErrDeadOwner/ErrInvalidPid mean the previous
// holder died and the lock is safe to reclaim.
package sessionlock

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/nightlyone/lockfile"
)

const lockFileName = ".tsugix.lock"

// ErrHeld is returned by Acquire when another live process holds the
// lock for this root directory.
var ErrHeld = errors.New("another tsugix run is already active in this directory")

// Lock guards one root directory for the duration of a pipeline run.
type Lock struct {
	handle lockfile.Lockfile
}

// Acquire takes the session lock for rootDir, reclaiming it if the
// previous holder's process is no longer alive.
func Acquire(rootDir string) (*Lock, error) {
	path, err := filepath.Abs(filepath.Join(rootDir, lockFileName))
	if err != nil {
		return nil, fmt.Errorf("resolve lock path: %w", err)
	}

	lf, err := lockfile.New(path)
	if err != nil {
		return nil, fmt.Errorf("create lock handle: %w", err)
	}

	switch err := lf.TryLock(); {
	case err == nil:
		return &Lock{handle: lf}, nil
	case errors.Is(err, lockfile.ErrBusy):
		return nil, ErrHeld
	case errors.Is(err, lockfile.ErrDeadOwner), errors.Is(err, lockfile.ErrInvalidPid):
		// Previous holder died without cleaning up; TryLock has already
		// reclaimed the file in this case for some lockfile versions, but
		// retry explicitly to be sure.
		if retryErr := lf.TryLock(); retryErr != nil {
			return nil, fmt.Errorf("reclaim stale lock: %w", retryErr)
		}
		return &Lock{handle: lf}, nil
	default:
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
}

// Release removes the lock file, allowing another run to proceed.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return l.handle.Unlock()
}
