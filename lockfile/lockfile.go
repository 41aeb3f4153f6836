// Package lockfile implements the exclusive single-writer lock used to
// guard every mutable file this system rewrites atomically: the index and
// each ref file.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// ErrAlreadyExists is returned by Lockfile.Hold when the sibling ".lock"
// file already exists: another writer is running, or crashed while
// holding the lock.
var ErrAlreadyExists = errors.New("lockfile: already exists")

// ErrNotHeld is returned by Write, Commit and Rollback when called without
// a prior successful Hold.
var ErrNotHeld = errors.New("lockfile: not holding lock")

// Lockfile guards path by creating and writing to a sibling "path.lock"
// file, exclusively, then atomically renaming it over path on Commit.
type Lockfile struct {
	fs       billy.Filesystem
	path     string
	lockPath string
	lock     billy.File
}

// New builds a Lockfile for path. Hold must be called before Write or
// Commit.
func New(fs billy.Filesystem, path string) *Lockfile {
	return &Lockfile{
		fs:       fs,
		path:     path,
		lockPath: lockPathFor(path),
	}
}

func lockPathFor(path string) string {
	if strings.HasSuffix(path, ".lock") {
		return path
	}
	return path + ".lock"
}

// Hold creates path.lock exclusively. It returns ErrAlreadyExists if the
// file exists already; Hold is otherwise idempotent for a lock already
// held by this handle.
func (l *Lockfile) Hold() error {
	if l.lock != nil {
		return nil
	}

	f, err := l.fs.OpenFile(l.lockPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		if os.IsExist(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("lockfile: holding %s: %w", l.lockPath, err)
	}

	l.lock = f
	return nil
}

// Write appends data to the held lock file.
func (l *Lockfile) Write(data []byte) (int, error) {
	if l.lock == nil {
		return 0, ErrNotHeld
	}
	return l.lock.Write(data)
}

// Commit renames path.lock over path and releases the handle.
func (l *Lockfile) Commit() error {
	if l.lock == nil {
		return ErrNotHeld
	}

	if err := l.lock.Close(); err != nil {
		return fmt.Errorf("lockfile: closing %s: %w", l.lockPath, err)
	}
	l.lock = nil

	if err := l.fs.Rename(l.lockPath, l.path); err != nil {
		return fmt.Errorf("lockfile: committing %s: %w", l.lockPath, err)
	}
	return nil
}

// Rollback removes path.lock without touching path, and releases the
// handle.
func (l *Lockfile) Rollback() error {
	if l.lock == nil {
		return ErrNotHeld
	}

	_ = l.lock.Close()
	l.lock = nil

	if err := l.fs.Remove(l.lockPath); err != nil {
		return fmt.Errorf("lockfile: rolling back %s: %w", l.lockPath, err)
	}
	return nil
}

// Path returns the path this lock guards.
func (l *Lockfile) Path() string {
	return l.path
}
