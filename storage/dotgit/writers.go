package dotgit

import (
	"github.com/go-git/go-billy/v5"

	"github.com/gitcore-go/gitcore/plumbing/format/objfile"
)

// ObjectWriter stages a new object in a temp file, hashing it as it's
// written, then renames it into place under its OID on Close. The rename
// is the write-once, content-addressed commit point.
type ObjectWriter struct {
	objfile.Writer
	fs billy.Filesystem
	f  billy.File
}

// Close finalizes the object: it closes the deflate stream, closes the
// temp file, then renames it to objects/<xx>/<rest> under the hash just
// computed. If an object with that hash already exists, the rename simply
// replaces it with identical content; store is idempotent by construction.
func (w *ObjectWriter) Close() error {
	if err := w.Writer.Close(); err != nil {
		return err
	}
	if err := w.f.Close(); err != nil {
		return err
	}
	return w.save()
}

func (w *ObjectWriter) save() error {
	h := w.Hash()
	dg := &DotGit{fs: w.fs}
	dest := dg.ObjectPath(h)

	if err := w.fs.MkdirAll(w.fs.Join(objectsPath, h.String()[:2]), 0o777); err != nil {
		return err
	}

	if err := w.fs.Rename(w.f.Name(), dest); err != nil {
		return err
	}
	fixPermissions(w.fs, dest)
	return nil
}
