package io

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the name of the lock file created inside a locked directory
const LockFileName = ".lock"

// DirLock is an exclusive lock on a directory, held through a lock file inside
// it. It keeps two processes from writing into the same directory.
type DirLock struct {
	lockFile *flock.Flock
	path     string
}

// NewDirLock creates a lock for dir, nothing is acquired yet
func NewDirLock(dir string) *DirLock {
	lockPath := filepath.Join(dir, LockFileName)
	return &DirLock{
		lockFile: flock.New(lockPath),
		path:     lockPath,
	}
}

// Lock creates the directory if needed and acquires the lock without waiting.
// It fails if another process holds the lock.
func (l *DirLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for lock file %s: %w", l.path, err)
	}

	locked, err := l.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", l.path, err)
	}
	if !locked {
		return fmt.Errorf("cannot lock %s: directory is used by another process", l.path)
	}
	return nil
}

// Unlock releases the lock. The lock file is left in place.
func (l *DirLock) Unlock() error {
	if err := l.lockFile.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.path, err)
	}
	return nil
}

// Path returns the path of the lock file
func (l *DirLock) Path() string {
	return l.path
}
