package journal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// StaleLockThreshold is the age after which a lock is assumed abandoned.
	StaleLockThreshold = 10 * time.Minute

	// LockFileName is created in the locked directory.
	LockFileName = "lgwheel.lock"
)

// ErrLockExists means another run holds the lock.
var ErrLockExists = errors.New("lock exists: another repair may be writing to this directory")

// Lock is an exclusive lock on a directory.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock takes the lock on dir, creating dir if needed. A lock older
// than StaleLockThreshold is removed and retried once.
func AcquireLock(ctx context.Context, dir string) (*Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	// Ensure the directory exists
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lockPath := filepath.Join(dir, LockFileName)

	// Try to create lock file exclusively
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		// Lock exists, check if stale
		if stale, _ := isLockStale(lockPath); !stale {
			return nil, ErrLockExists
		}
		// Stale lock, remove and retry
		_ = os.Remove(lockPath)
		file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
		if err != nil {
			return nil, ErrLockExists
		}
	}

	// Write lock metadata
	lockData := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		_ = os.Remove(lockPath)
		return nil, fmt.Errorf("write lock data: %w", err)
	}

	// Sync to disk
	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(lockPath)
		return nil, fmt.Errorf("sync lock file: %w", err)
	}

	return &Lock{path: lockPath, file: file}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release removes the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	// Close file handle
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	// Remove lock file
	if l.path != "" {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove lock file: %w", err)
		}
		l.path = ""
	}

	return nil
}

func isLockStale(lockPath string) (bool, error) {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false, err
	}
	return time.Since(info.ModTime()) > StaleLockThreshold, nil
}
