// Package workspace implements read and mutating operations on the working
// tree: ignore-filtered directory listing, file reads, POSIX stat, and the
// file/directory mutations a migration plan drives.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"

	"github.com/gitcore-go/gitcore/plumbing/filemode"
	"github.com/gitcore-go/gitcore/plumbing/format/index"
	"github.com/gitcore-go/gitcore/plumbing/object"
)

// ignoredNames are directory entries the workspace never surfaces, whether
// scanning for status or applying a migration.
var ignoredNames = map[string]bool{
	".git": true,
}

// ErrReadDenied wraps a permission error hit while reading a path, the
// condition surfaced to the user as "adding files failed".
var ErrReadDenied = errors.New("workspace: permission denied")

// Workspace wraps a billy.Filesystem rooted at the repository's working
// tree (the directory containing ".git").
type Workspace struct {
	fs billy.Filesystem
}

// New wraps fs as a Workspace.
func New(fs billy.Filesystem) *Workspace {
	return &Workspace{fs: fs}
}

// Filesystem returns the underlying billy.Filesystem.
func (w *Workspace) Filesystem() billy.Filesystem {
	return w.fs
}

// ListDir returns every entry directly under relDir, excluding ".git",
// keyed by name. relDir is relative to the workspace root; "" or "."
// addresses the root itself.
func (w *Workspace) ListDir(relDir string) (map[string]os.FileInfo, error) {
	entries, err := w.fs.ReadDir(toFSPath(relDir))
	if err != nil {
		return nil, err
	}

	out := make(map[string]os.FileInfo, len(entries))
	for _, e := range entries {
		if ignoredNames[e.Name()] {
			continue
		}
		out[e.Name()] = e
	}
	return out, nil
}

// ListFiles recursively flattens relPath into every file beneath it, sorted
// by path. If relPath is itself a file, ListFiles returns a single-element
// slice.
func (w *Workspace) ListFiles(relPath string) ([]string, error) {
	info, err := w.fs.Stat(toFSPath(relPath))
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{relPath}, nil
	}

	var out []string
	if err := w.walk(relPath, &out); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (w *Workspace) walk(relDir string, out *[]string) error {
	entries, err := w.ListDir(relDir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rel := joinRel(relDir, name)
		if entries[name].IsDir() {
			if err := w.walk(rel, out); err != nil {
				return err
			}
			continue
		}
		*out = append(*out, rel)
	}
	return nil
}

// ReadFile reads the full content of rel.
func (w *Workspace) ReadFile(rel string) ([]byte, error) {
	f, err := w.fs.Open(toFSPath(rel))
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrReadDenied, rel)
		}
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// StatFile returns the POSIX metadata of rel, platform-specific fields
// (dev, ino, uid, gid) included where the OS exposes them.
func (w *Workspace) StatFile(rel string) (index.Stat, error) {
	info, err := w.fs.Stat(toFSPath(rel))
	if err != nil {
		return index.Stat{}, err
	}
	return statFromFileInfo(info), nil
}

// Exists reports whether rel exists, as either a file or a directory.
func (w *Workspace) Exists(rel string) bool {
	_, err := w.fs.Stat(toFSPath(rel))
	return err == nil
}

// IsDir reports whether rel exists and is a directory.
func (w *Workspace) IsDir(rel string) bool {
	info, err := w.fs.Stat(toFSPath(rel))
	return err == nil && info.IsDir()
}

// Remove deletes the file at rel.
func (w *Workspace) Remove(rel string) error {
	return w.fs.Remove(toFSPath(rel))
}

// Rmdir removes rel if it is empty, silently doing nothing if it is
// missing or not empty: a migration walks candidate directories
// best-effort, since not every one actually emptied out.
func (w *Workspace) Rmdir(rel string) error {
	entries, err := w.fs.ReadDir(toFSPath(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(entries) > 0 {
		return nil
	}
	if err := w.fs.Remove(toFSPath(rel)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MkdirAll ensures rel exists as a directory, first removing any plain file
// occupying the path.
func (w *Workspace) MkdirAll(rel string) error {
	p := toFSPath(rel)
	if info, err := w.fs.Stat(p); err == nil && !info.IsDir() {
		if err := w.fs.Remove(p); err != nil {
			return err
		}
	}
	return w.fs.MkdirAll(p, 0o777)
}

// WriteBlob truncates (or creates) rel, writes blob's content, and restores
// mode, the shared body of a migration's Update and Create steps.
func (w *Workspace) WriteBlob(rel string, blob *object.Blob, mode filemode.FileMode) error {
	p := toFSPath(rel)
	if dir := path.Dir(p); dir != "." {
		if err := w.MkdirAll(dir); err != nil {
			return err
		}
	}

	f, err := w.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return err
	}

	content, err := blob.Contents()
	if err != nil {
		_ = f.Close()
		return err
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return w.applyMode(p, mode)
}

func (w *Workspace) applyMode(p string, mode filemode.FileMode) error {
	osMode, err := mode.ToOSFileMode()
	if err != nil {
		return err
	}
	if chmodFS, ok := w.fs.(billy.Change); ok {
		return chmodFS.Chmod(p, osMode.Perm())
	}
	return nil
}

func toFSPath(rel string) string {
	if rel == "" || rel == "." {
		return "."
	}
	return rel
}

func joinRel(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return path.Join(dir, name)
}
