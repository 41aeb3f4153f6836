// Package treediff implements the recursive comparison of two tree OIDs:
// a mapping from path to the entry each side held there, covering
// only the leaves where at least one side is a file. Matching interior
// subtrees are pruned without ever being walked.
package treediff

import (
	"sort"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/filemode"
	"github.com/gitcore-go/gitcore/storage"
)

// Entry is the side of a Change that a tree held at a path: its mode and
// the OID of the blob or subtree it names.
type Entry struct {
	Mode filemode.FileMode
	Hash plumbing.Hash
}

// Change is one path's before/after entry. Either side may be nil: Old nil
// means the path is new in the right-hand tree; New nil means it was
// removed.
type Change struct {
	Old *Entry
	New *Entry
}

// Diff is the full set of leaf changes between two trees, keyed by path.
type Diff struct {
	changes map[string]Change
}

// Paths returns every changed path, sorted.
func (d *Diff) Paths() []string {
	out := make([]string, 0, len(d.changes))
	for p := range d.changes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Get returns the Change recorded at path, if any.
func (d *Diff) Get(path string) (Change, bool) {
	c, ok := d.changes[path]
	return c, ok
}

// Len returns the number of changed paths.
func (d *Diff) Len() int {
	return len(d.changes)
}

// Empty reports whether no paths differ between the two trees.
func (d *Diff) Empty() bool {
	return len(d.changes) == 0
}

func (d *Diff) set(path string, old, new *Entry) {
	if d.changes == nil {
		d.changes = make(map[string]Change)
	}
	d.changes[path] = Change{Old: old, New: new}
}

// CompareOIDs recursively diffs the trees at a and b (either may be
// plumbing.ZeroHash, meaning "absent"), returning every leaf path where
// content differs.
func CompareOIDs(db *storage.Database, a, b plumbing.Hash) (*Diff, error) {
	d := &Diff{}
	if err := compare(db, a, b, "", d); err != nil {
		return nil, err
	}
	return d, nil
}

func compare(db *storage.Database, a, b plumbing.Hash, prefix string, d *Diff) error {
	if a == b {
		return nil
	}

	aChildren, err := childrenOf(db, a)
	if err != nil {
		return err
	}
	bChildren, err := childrenOf(db, b)
	if err != nil {
		return err
	}

	names := make(map[string]struct{}, len(aChildren)+len(bChildren))
	for name := range aChildren {
		names[name] = struct{}{}
	}
	for name := range bChildren {
		names[name] = struct{}{}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	for _, name := range sorted {
		ae, aok := aChildren[name]
		be, bok := bChildren[name]
		path := joinPath(prefix, name)

		switch {
		case aok && bok && ae.Mode == be.Mode && ae.Hash == be.Hash:
			continue
		case aok && !bok:
			if err := recurseOrRecord(db, ae, nil, path, d); err != nil {
				return err
			}
		case !aok && bok:
			if err := recurseOrRecord(db, nil, be, path, d); err != nil {
				return err
			}
		default:
			if err := recurseOrRecord(db, ae, be, path, d); err != nil {
				return err
			}
		}
	}
	return nil
}

// recurseOrRecord handles one changed name: two subtrees recurse; a
// subtree against a file (in either direction) recurses the subtree
// against "absent" and separately records the file side; anything else
// (at least one file side, no subtree-to-subtree match) is recorded
// directly.
func recurseOrRecord(db *storage.Database, a, b *Entry, path string, d *Diff) error {
	aIsTree := a != nil && a.Mode == filemode.Dir
	bIsTree := b != nil && b.Mode == filemode.Dir

	switch {
	case aIsTree && bIsTree:
		return compare(db, a.Hash, b.Hash, path, d)
	case aIsTree && b == nil:
		return compare(db, a.Hash, plumbing.ZeroHash, path, d)
	case bIsTree && a == nil:
		return compare(db, plumbing.ZeroHash, b.Hash, path, d)
	case aIsTree:
		if err := compare(db, a.Hash, plumbing.ZeroHash, path, d); err != nil {
			return err
		}
		d.set(path, nil, b)
		return nil
	case bIsTree:
		if err := compare(db, plumbing.ZeroHash, b.Hash, path, d); err != nil {
			return err
		}
		d.set(path, a, nil)
		return nil
	default:
		d.set(path, a, b)
		return nil
	}
}

func childrenOf(db *storage.Database, oid plumbing.Hash) (map[string]*Entry, error) {
	if oid.IsZero() {
		return nil, nil
	}
	t, err := db.LoadTree(oid)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Entry, len(t.Entries))
	for _, e := range t.Entries {
		out[e.Name] = &Entry{Mode: e.Mode, Hash: e.Hash}
	}
	return out, nil
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
