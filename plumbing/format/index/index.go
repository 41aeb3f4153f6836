// Package index implements the binary staging index: a flat, path-sorted
// record of what will become the next commit's tree, held under a
// crash-safe lockfile and trailed with a streaming SHA-1 checksum.
package index

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/go-git/go-billy/v5"

	"github.com/gitcore-go/gitcore/lockfile"
	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/filemode"
)

// maxPathSize is the largest path length the 12-bit flags field can record
// without clamping (see Entry.flags).
const maxPathSize = 0xfff

// ErrUnsupportedVersion is returned by Decode for any version other than 2.
var ErrUnsupportedVersion = errors.New("index: unsupported version")

// ErrChecksumMismatch is returned by Decode when the trailing SHA-1 does not
// match the hash of the preceding bytes.
var ErrChecksumMismatch = errors.New("index: checksum mismatch")

// ErrEntryNotFound is returned when a path has no corresponding entry.
var ErrEntryNotFound = errors.New("index: entry not found")

// Stat is the subset of filesystem metadata an index entry compares itself
// against. A full 64-bit value is retained for every timestamp and for size
// so workspace-vs-index comparisons are exact even though the serialized
// form truncates to 32 bits.
type Stat struct {
	CTime, CTimeNanosec int64
	MTime, MTimeNanosec int64
	Dev, Ino            uint64
	Mode                filemode.FileMode
	UID, GID            uint32
	Size                uint64
}

// Entry is a single staged path: its object hash, POSIX metadata at the
// time it was added or last refreshed, and its path relative to the
// repository root.
type Entry struct {
	CTime, CTimeNanosec int64
	MTime, MTimeNanosec int64
	Dev, Ino            uint64
	Mode                filemode.FileMode
	UID, GID            uint32
	Size                uint64
	Hash                plumbing.Hash
	Path                string
}

func newEntry(path string, h plumbing.Hash, st Stat) *Entry {
	return &Entry{
		CTime: st.CTime, CTimeNanosec: st.CTimeNanosec,
		MTime: st.MTime, MTimeNanosec: st.MTimeNanosec,
		Dev: st.Dev, Ino: st.Ino,
		Mode: st.Mode,
		UID:  st.UID, GID: st.GID,
		Size: st.Size,
		Hash: h,
		Path: path,
	}
}

// flags returns the entry's 16-bit flags word: the low 12 bits hold the
// path length, clamped to maxPathSize.
func (e *Entry) flags() uint16 {
	n := len(e.Path)
	if n > maxPathSize {
		n = maxPathSize
	}
	return uint16(n)
}

// StatMatch reports whether e's mode matches st's, and either e's recorded
// size is zero (a fresh entry never hashed against a size) or the sizes are
// equal.
func (e *Entry) StatMatch(st Stat) bool {
	if e.Mode != st.Mode {
		return false
	}
	return e.Size == 0 || e.Size == st.Size
}

// TimesMatch reports whether every one of the four stat timestamps is
// unchanged, the fast path that lets Status skip rehashing a file.
func (e *Entry) TimesMatch(st Stat) bool {
	return e.CTime == st.CTime && e.CTimeNanosec == st.CTimeNanosec &&
		e.MTime == st.MTime && e.MTimeNanosec == st.MTimeNanosec
}

// UpdateStat refreshes e's metadata fields from st without touching its
// hash; used by the status engine's fast path after confirming the file's
// content hasn't actually changed.
func (e *Entry) UpdateStat(st Stat) {
	e.CTime, e.CTimeNanosec = st.CTime, st.CTimeNanosec
	e.MTime, e.MTimeNanosec = st.MTime, st.MTimeNanosec
	e.Dev, e.Ino = st.Dev, st.Ino
	e.Mode = st.Mode
	e.UID, e.GID = st.UID, st.GID
	e.Size = st.Size
}

// ErrNotLocked is returned by WriteUpdates when the index was not obtained
// through LoadForUpdate.
var ErrNotLocked = errors.New("index: not held for update")

// Index is the in-memory staging area: a path-sorted map of entries, plus a
// dirty flag tracking whether anything has changed since it was loaded.
type Index struct {
	entries *treemap.Map
	changed bool
	lock    *lockfile.Lockfile
}

// New returns an empty index.
func New() *Index {
	return &Index{entries: treemap.NewWithStringComparator()}
}

// LoadForUpdate acquires the index's lockfile and parses the current
// on-disk contents, if any (a missing file yields an empty index, the
// newborn-repository case). The returned Index must be released with
// WriteUpdates, even when the caller makes no changes, so the lock is
// dropped. The lock is held for the duration of a read-only status scan
// too, since the stat-cache refresh it performs is only durable if
// written back.
func LoadForUpdate(fs billy.Filesystem, path string) (*Index, error) {
	lock := lockfile.New(fs, path)
	if err := lock.Hold(); err != nil {
		return nil, err
	}

	idx, err := readIndexFile(fs, path)
	if err != nil {
		_ = lock.Rollback()
		return nil, err
	}
	idx.lock = lock
	return idx, nil
}

func readIndexFile(fs billy.Filesystem, path string) (*Index, error) {
	f, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, err
	}
	defer f.Close()

	idx, err := NewDecoder(f).Decode()
	if err != nil {
		return nil, fmt.Errorf("index: %s: %w", path, err)
	}
	return idx, nil
}

// WriteUpdates commits the index back to disk if it changed since it was
// loaded, or rolls the lock back untouched otherwise. Either way the lock
// held by LoadForUpdate is released.
func (idx *Index) WriteUpdates() error {
	if idx.lock == nil {
		return ErrNotLocked
	}

	if !idx.changed {
		err := idx.lock.Rollback()
		idx.lock = nil
		return err
	}

	if err := NewEncoder(idx.lock).Encode(idx); err != nil {
		_ = idx.lock.Rollback()
		idx.lock = nil
		return err
	}

	if err := idx.lock.Commit(); err != nil {
		idx.lock = nil
		return err
	}

	idx.markClean()
	idx.lock = nil
	return nil
}

// Rollback releases the lock held by LoadForUpdate without writing,
// abandoning any in-memory changes. Callers use this when staging fails
// partway and the on-disk index must stay as it was.
func (idx *Index) Rollback() error {
	if idx.lock == nil {
		return ErrNotLocked
	}
	err := idx.lock.Rollback()
	idx.lock = nil
	return err
}

// Entries returns every entry, sorted by path.
func (idx *Index) Entries() []*Entry {
	values := idx.entries.Values()
	out := make([]*Entry, len(values))
	for i, v := range values {
		out[i] = v.(*Entry)
	}
	return out
}

// EntryForPath returns the entry at path, if any.
func (idx *Index) EntryForPath(path string) (*Entry, bool) {
	v, ok := idx.entries.Get(path)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

// IsTracked reports whether path is itself a staged entry or the ancestor
// directory of one.
func (idx *Index) IsTracked(path string) bool {
	if _, ok := idx.entries.Get(path); ok {
		return true
	}
	prefix := path + "/"
	for _, k := range idx.entries.Keys() {
		if strings.HasPrefix(k.(string), prefix) {
			return true
		}
	}
	return false
}

// Changed reports whether the index has been mutated since it was loaded
// (or since the last WriteUpdates).
func (idx *Index) Changed() bool {
	return idx.changed
}

// RefreshEntryStat updates e's metadata from st and marks the index
// changed, so the refreshed stat-cache values are durable on the next
// WriteUpdates. Used by the status engine's fast path: the refresh is a
// performance optimization, not a semantic mutation, but it is only
// preserved if the index is written back.
func (idx *Index) RefreshEntryStat(e *Entry, st Stat) {
	e.UpdateStat(st)
	idx.changed = true
}

// Add stages path at h with metadata st. Any existing entry that is an
// ancestor directory of path, or that has path as an ancestor directory, is
// discarded first: no index path may be a strict prefix directory of
// another.
func (idx *Index) Add(path string, h plumbing.Hash, st Stat) {
	idx.discardConflicts(path)
	idx.entries.Put(path, newEntry(path, h, st))
	idx.changed = true
}

// Remove discards the entry at path, if any.
func (idx *Index) Remove(path string) {
	if _, ok := idx.entries.Get(path); ok {
		idx.entries.Remove(path)
		idx.changed = true
	}
}

func (idx *Index) discardConflicts(path string) {
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		ancestor := strings.Join(parts[:i], "/")
		if _, ok := idx.entries.Get(ancestor); ok {
			idx.entries.Remove(ancestor)
			idx.changed = true
		}
	}

	prefix := path + "/"
	var descendants []string
	for _, k := range idx.entries.Keys() {
		if p := k.(string); strings.HasPrefix(p, prefix) {
			descendants = append(descendants, p)
		}
	}
	for _, p := range descendants {
		idx.entries.Remove(p)
		idx.changed = true
	}
}

// markClean clears the changed flag; called after a successful WriteUpdates.
func (idx *Index) markClean() {
	idx.changed = false
}

// validatePath rejects paths the index must never record: empty, not
// "/"-separated, or containing "." or ".." components.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("index: empty path")
	}
	for _, part := range strings.Split(path, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("index: invalid path component in %q", path)
		}
	}
	return nil
}
