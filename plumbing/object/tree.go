package object

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/filemode"
	"github.com/gitcore-go/gitcore/plumbing/hash"
)

// TreeEntry is one direct child of a Tree: a name, its mode, and the hash
// of the blob or subtree it refers to.
type TreeEntry struct {
	Name string
	Mode filemode.FileMode
	Hash plumbing.Hash
}

// Tree is an ordered mapping from name to entry. Its canonical encoding
// sorts entries by name and is the one serialization every implementation
// of this format must reproduce byte-for-byte, since the OID is derived
// from it.
type Tree struct {
	Hash    plumbing.Hash
	Entries []TreeEntry
}

// NewTree builds a Tree from an unordered set of entries, sorting them as
// the canonical encoding requires.
func NewTree(entries []TreeEntry) *Tree {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sortTreeEntries(sorted)
	return &Tree{Entries: sorted}
}

// Type returns TreeObject.
func (t *Tree) Type() plumbing.ObjectType { return plumbing.TreeObject }

// sortTreeEntries orders entries the way git does: byte-wise by name, but
// as if a tree entry's name carried a trailing "/" when it is itself a
// tree. This makes "foo" sort after "foo-bar" when "foo" is a directory,
// matching git's canonical ordering.
func sortTreeEntries(entries []TreeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return treeEntrySortKey(entries[i]) < treeEntrySortKey(entries[j])
	})
}

func treeEntrySortKey(e TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

// Encode writes the canonical tree body: for each entry, in sorted order,
// "<octal-mode> <name>\0<20-byte-hash>".
func (t *Tree) Encode(w io.Writer) error {
	for _, e := range t.Entries {
		if bytes.ContainsRune([]byte(e.Name), 0) {
			return fmt.Errorf("object: tree entry name %q contains a NUL byte", e.Name)
		}
		if _, err := fmt.Fprintf(w, "%s %s\x00", strconv.FormatUint(uint64(e.Mode), 8), e.Name); err != nil {
			return err
		}
		if _, err := w.Write(e.Hash.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// DecodeTree parses a tree body previously produced by Encode.
func DecodeTree(h plumbing.Hash, body []byte) (*Tree, error) {
	t := &Tree{Hash: h}
	for len(body) > 0 {
		sp := bytes.IndexByte(body, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("object: malformed tree entry in %s", h)
		}
		mode, err := filemode.New(string(body[:sp]))
		if err != nil {
			return nil, fmt.Errorf("object: tree %s: %w", h, err)
		}

		rest := body[sp+1:]
		nul := bytes.IndexByte(rest, 0)
		if nul < 0 {
			return nil, fmt.Errorf("object: malformed tree entry in %s", h)
		}
		name := string(rest[:nul])

		oidStart := nul + 1
		if oidStart+hash.Size > len(rest) {
			return nil, fmt.Errorf("object: truncated tree entry in %s", h)
		}
		var oid plumbing.Hash
		copy(oid[:], rest[oidStart:oidStart+hash.Size])

		t.Entries = append(t.Entries, TreeEntry{Name: name, Mode: mode, Hash: oid})
		body = rest[oidStart+hash.Size:]
	}
	return t, nil
}
