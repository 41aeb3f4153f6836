// Package dotgit implements the on-disk layout shared by the object store
// and the reference layer: the paths under a repository's git directory,
// and the low-level primitives (write-once object files, loose refs) both
// are built from.
package dotgit

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/format/objfile"
	"github.com/gitcore-go/gitcore/plumbing/hash"
)

const (
	objectsPath = "objects"
	refsPath    = "refs"
	headPath    = "HEAD"
	indexPath   = "index"
)

// DotGit wraps a billy.Filesystem rooted at a repository's git directory
// (".git" for a non-bare repository) and knows the paths of every file the
// core touches.
type DotGit struct {
	fs billy.Filesystem
}

// New wraps fs, which must already be rooted at the git directory.
func New(fs billy.Filesystem) *DotGit {
	return &DotGit{fs: fs}
}

// Filesystem returns the underlying billy.Filesystem.
func (d *DotGit) Filesystem() billy.Filesystem {
	return d.fs
}

// Initialize creates the directory skeleton of an empty repository:
// objects/, refs/heads/, refs/tags/.
func (d *DotGit) Initialize() error {
	for _, dir := range []string{
		objectsPath,
		d.fs.Join(refsPath, "heads"),
		d.fs.Join(refsPath, "tags"),
	} {
		if err := d.fs.MkdirAll(dir, 0o777); err != nil {
			return fmt.Errorf("dotgit: initializing %s: %w", dir, err)
		}
	}
	return nil
}

// ObjectPath returns the path of the stored object identified by h:
// "objects/<xx>/<remaining 38 hex chars>".
func (d *DotGit) ObjectPath(h plumbing.Hash) string {
	s := h.String()
	return d.fs.Join(objectsPath, s[:2], s[2:])
}

// HasObject reports whether an object file exists for h.
func (d *DotGit) HasObject(h plumbing.Hash) bool {
	_, err := d.fs.Stat(d.ObjectPath(h))
	return err == nil
}

// OpenObject opens the compressed object file for h for reading.
func (d *DotGit) OpenObject(h plumbing.Hash) (billy.File, error) {
	f, err := d.fs.Open(d.ObjectPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, plumbing.ErrObjectNotFound
		}
		return nil, err
	}
	return f, nil
}

// NewObjectWriter opens a temp file to stage a new object, to be finalized
// with ObjectWriter.Close.
func (d *DotGit) NewObjectWriter() (*ObjectWriter, error) {
	dir := objectsPath
	if err := d.fs.MkdirAll(dir, 0o777); err != nil {
		return nil, err
	}

	f, err := d.fs.TempFile(dir, "tmp_obj_")
	if err != nil {
		return nil, err
	}

	return &ObjectWriter{
		Writer: *objfile.NewWriter(f),
		fs:     d.fs,
		f:      f,
	}, nil
}

// PrefixMatch enumerates stored objects whose hash starts with prefix.
// Callers are expected to pass at least 4 hex characters.
func (d *DotGit) PrefixMatch(prefix string) ([]plumbing.Hash, error) {
	if len(prefix) < 2 {
		return d.allObjects()
	}

	dirName := prefix[:2]
	entries, err := d.fs.ReadDir(d.fs.Join(objectsPath, dirName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []plumbing.Hash
	rest := prefix[2:]
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), rest) {
			continue
		}
		full := dirName + e.Name()
		h, ok := hash.FromHex(full)
		if !ok {
			continue
		}
		out = append(out, h)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out, nil
}

func (d *DotGit) allObjects() ([]plumbing.Hash, error) {
	dirs, err := d.fs.ReadDir(objectsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []plumbing.Hash
	for _, dir := range dirs {
		if !dir.IsDir() || len(dir.Name()) != 2 {
			continue
		}
		entries, err := d.fs.ReadDir(d.fs.Join(objectsPath, dir.Name()))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			h, ok := hash.FromHex(dir.Name() + e.Name())
			if !ok {
				continue
			}
			out = append(out, h)
		}
	}
	return out, nil
}

// HeadPath returns the path of HEAD.
func (d *DotGit) HeadPath() string {
	return headPath
}

// IndexPath returns the path of the staging index.
func (d *DotGit) IndexPath() string {
	return indexPath
}

// RefPath returns the on-disk path of a fully-qualified reference name,
// e.g. "refs/heads/master" or "HEAD".
func (d *DotGit) RefPath(name plumbing.ReferenceName) string {
	return d.fs.Join(strings.Split(string(name), "/")...)
}

// BranchRefsDir is the directory under which every local branch ref lives.
func (d *DotGit) BranchRefsDir() string {
	return d.fs.Join(refsPath, "heads")
}

// ReadFile reads the full content of a ref-like file (HEAD or a ref path).
func (d *DotGit) ReadFile(path string) ([]byte, error) {
	f, err := d.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// WalkBranchRefs visits every file under refs/heads/, recursively, passing
// the reference name relative to the git directory (e.g.
// "refs/heads/feature/x").
func (d *DotGit) WalkBranchRefs(visit func(name plumbing.ReferenceName) error) error {
	return d.walk(d.BranchRefsDir(), "refs/heads", visit)
}

// walk recurses into dir (a billy filesystem path) while tracking logicalPrefix,
// the "/"-joined reference name built up so far, since billy paths may use an
// OS-specific separator while reference names always use "/".
func (d *DotGit) walk(dir, logicalPrefix string, visit func(name plumbing.ReferenceName) error) error {
	entries, err := d.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		full := d.fs.Join(dir, e.Name())
		logical := logicalPrefix + "/" + e.Name()
		if e.IsDir() {
			if err := d.walk(full, logical, visit); err != nil {
				return err
			}
			continue
		}
		if err := visit(plumbing.ReferenceName(logical)); err != nil {
			return err
		}
	}
	return nil
}
