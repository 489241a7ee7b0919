package store

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

const lockFileName = "store.lock"

// FileLock is an exclusive flock(2) on <dir>/store.lock. Every process that
// writes the snapshot or the action log holds it for the whole
// read-modify-write cycle.
type FileLock struct {
	path string
	file *os.File
}

func (s Store) NewFileLock() *FileLock {
	return &FileLock{path: filepath.Join(s.Dir, lockFileName)}
}

// Lock blocks until the lock is acquired. The lock file is created if needed.
func (fl *FileLock) Lock() error {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return fmt.Errorf("flock: %w", err)
	}
	fl.file = f
	return nil
}

// Unlock releases the lock. It is a no-op when the lock is not held.
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}
	f := fl.file
	fl.file = nil
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		_ = f.Close()
		return fmt.Errorf("funlock: %w", err)
	}
	return f.Close()
}
