// Package migration plans and applies the minimal set of workspace and
// index mutations that move a repository from one tree to another:
// conflict detection that refuses to destroy uncommitted work, followed by
// an ordered delete/rmdir/mkdir/update/create sequence.
package migration

import (
	"errors"
	"os"
	"strings"

	"github.com/emirpasic/gods/sets/treeset"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/format/index"
	"github.com/gitcore-go/gitcore/status"
	"github.com/gitcore-go/gitcore/storage"
	"github.com/gitcore-go/gitcore/treediff"
	"github.com/gitcore-go/gitcore/workspace"
)

// ConflictKind classifies why a migration refuses to proceed.
type ConflictKind int

const (
	// StaleFile is a path the index has staged with content that matches
	// neither the old nor the new tree; checkout would discard it.
	StaleFile ConflictKind = iota + 1
	// StaleDirectory is a directory the migration would need to remove or
	// replace that still holds untracked files.
	StaleDirectory
	// UntrackedOverwritten is an untracked workspace file the migration
	// would overwrite with new tree content.
	UntrackedOverwritten
	// UntrackedRemoved is an untracked workspace file occupying a path
	// the migration needs to delete.
	UntrackedRemoved
)

type conflictText struct {
	header string
	footer string
}

var conflictTexts = map[ConflictKind]conflictText{
	StaleFile: {
		header: "Your local changes to the following files would be overwritten by checkout:",
		footer: "Please commit your changes to stash them before you switch branches",
	},
	StaleDirectory: {
		header: "Updating the following directories would lose untracked files in them:",
	},
	UntrackedOverwritten: {
		header: "The following untracked working tree files would be overwritten by checkout:",
		footer: "Please move or remove them before you switch branches",
	},
	UntrackedRemoved: {
		header: "The following untracked working tree files would be removed by checkout:",
		footer: "Please commit your changes to stash them before you switch branches",
	},
}

// conflictOrder is the order groups are rendered in, stable regardless of
// map iteration.
var conflictOrder = []ConflictKind{StaleFile, StaleDirectory, UntrackedOverwritten, UntrackedRemoved}

// ErrConflict is the sentinel ConflictError wraps, for errors.Is checks.
var ErrConflict = errors.New("migration: would overwrite or lose local changes")

// ConflictError reports every conflicting path, grouped by kind. The
// workspace, index and HEAD are left untouched when this error is
// returned.
type ConflictError struct {
	Groups map[ConflictKind][]string
}

func (e *ConflictError) Error() string {
	var b strings.Builder
	first := true
	for _, kind := range conflictOrder {
		paths := e.Groups[kind]
		if len(paths) == 0 {
			continue
		}
		if !first {
			b.WriteString("\n\n")
		}
		first = false

		text := conflictTexts[kind]
		b.WriteString(text.header)
		b.WriteString("\n")
		for _, p := range paths {
			b.WriteString("\t")
			b.WriteString(p)
			b.WriteString("\n")
		}
		if text.footer != "" {
			b.WriteString(text.footer)
		}
	}
	return b.String()
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// change is one path's planned mutation.
type change struct {
	path string
	old  *treediff.Entry
	new  *treediff.Entry
}

// Migration is a computed plan: the ordered Delete/Update/Create lists and
// the rmdir/mkdir sets that bracket them.
type Migration struct {
	db  *storage.Database
	ws  *workspace.Workspace
	idx *index.Index

	deletes []change
	updates []change
	creates []change
	rmdirs  []string
	mkdirs  []string
}

// Plan builds a Migration from diff against the current index and
// workspace state, returning a *ConflictError if applying it would
// overwrite or lose uncommitted work.
func Plan(db *storage.Database, ws *workspace.Workspace, idx *index.Index, diff *treediff.Diff) (*Migration, error) {
	m := &Migration{db: db, ws: ws, idx: idx}

	if err := m.detectConflicts(diff); err != nil {
		return nil, err
	}
	m.buildPlan(diff)
	return m, nil
}

func (m *Migration) detectConflicts(diff *treediff.Diff) error {
	groups := make(map[ConflictKind][]string)

	for _, path := range diff.Paths() {
		c, _ := diff.Get(path)
		kind, conflict, err := m.classify(path, c)
		if err != nil {
			return err
		}
		if conflict {
			groups[kind] = append(groups[kind], path)
		}
	}

	if len(groups) == 0 {
		return nil
	}
	return &ConflictError{Groups: groups}
}

func (m *Migration) classify(path string, c treediff.Change) (ConflictKind, bool, error) {
	idxEntry, hasIdx := m.idx.EntryForPath(path)

	if hasIdx && !entryMatches(idxEntry, c.Old) && !entryMatches(idxEntry, c.New) {
		return StaleFile, true, nil
	}

	exists := m.ws.Exists(path)
	if !exists {
		blocked, err := m.ancestorBlocked(path)
		if err != nil || !blocked {
			return 0, false, err
		}
		if c.New != nil {
			return UntrackedOverwritten, true, nil
		}
		return UntrackedRemoved, true, nil
	}

	if m.ws.IsDir(path) {
		trackable, err := status.IsTrackableDir(m.ws, m.idx, path)
		if err != nil {
			return 0, false, err
		}
		if trackable {
			return StaleDirectory, true, nil
		}
		return 0, false, nil
	}

	content, err := m.ws.ReadFile(path)
	if err != nil {
		return 0, false, err
	}
	h := storage.HashObject(plumbing.BlobObject, content)

	if hasIdx && idxEntry.Hash == h {
		return 0, false, nil
	}
	if hasIdx {
		return StaleFile, true, nil
	}
	if c.New != nil {
		return UntrackedOverwritten, true, nil
	}
	return UntrackedRemoved, true, nil
}

// ancestorBlocked reports whether a proper ancestor directory of path is
// occupied by a plain file in the workspace, which would prevent the
// migration from ever reaching path.
func (m *Migration) ancestorBlocked(path string) (bool, error) {
	for _, ancestor := range properAncestors(path) {
		if !m.ws.Exists(ancestor) {
			continue
		}
		if !m.ws.IsDir(ancestor) {
			return true, nil
		}
	}
	return false, nil
}

func entryMatches(idxEntry *index.Entry, te *treediff.Entry) bool {
	if te == nil {
		return false
	}
	return idxEntry.Mode == te.Mode && idxEntry.Hash == te.Hash
}

func (m *Migration) buildPlan(diff *treediff.Diff) {
	mkdirSet := treeset.NewWithStringComparator()
	rmdirSet := treeset.NewWithStringComparator()

	for _, path := range diff.Paths() {
		c, _ := diff.Get(path)
		switch {
		case c.Old == nil:
			m.creates = append(m.creates, change{path, c.Old, c.New})
			addAncestors(mkdirSet, path)
		case c.New == nil:
			m.deletes = append(m.deletes, change{path, c.Old, c.New})
			addAncestors(rmdirSet, path)
		default:
			m.updates = append(m.updates, change{path, c.Old, c.New})
			addAncestors(mkdirSet, path)
		}
	}

	m.mkdirs = setValues(mkdirSet)
	m.rmdirs = reversed(setValues(rmdirSet))
}

// Apply executes the plan: deletes, then
// best-effort rmdir deepest-first, then mkdir shallowest-first, then
// updates and creates (which share a write path), refreshing the index as
// it goes. Apply never reorders these steps: doing so risks ENOTDIR,
// ENOTEMPTY, or silently discarding a file migration was meant to create.
func (m *Migration) Apply() error {
	for _, c := range m.deletes {
		if err := m.ws.Remove(c.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		m.idx.Remove(c.path)
	}

	for _, dir := range m.rmdirs {
		if err := m.ws.Rmdir(dir); err != nil {
			return err
		}
	}

	for _, dir := range m.mkdirs {
		if err := m.ws.MkdirAll(dir); err != nil {
			return err
		}
	}

	for _, c := range m.updates {
		if err := m.writeAndStage(c); err != nil {
			return err
		}
	}
	for _, c := range m.creates {
		if err := m.writeAndStage(c); err != nil {
			return err
		}
	}

	return nil
}

func (m *Migration) writeAndStage(c change) error {
	blob, err := m.db.LoadBlob(c.new.Hash)
	if err != nil {
		return err
	}
	if err := m.ws.WriteBlob(c.path, blob, c.new.Mode); err != nil {
		return err
	}
	st, err := m.ws.StatFile(c.path)
	if err != nil {
		return err
	}
	m.idx.Add(c.path, c.new.Hash, st)
	return nil
}

// Deletes, Updates and Creates return the planned paths in each category,
// for callers that want to report what a checkout is about to do.
func (m *Migration) Deletes() []string { return changePaths(m.deletes) }
func (m *Migration) Updates() []string { return changePaths(m.updates) }
func (m *Migration) Creates() []string { return changePaths(m.creates) }

func changePaths(cs []change) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.path
	}
	return out
}

func properAncestors(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		out = append(out, strings.Join(parts[:i], "/"))
	}
	return out
}

func addAncestors(set *treeset.Set, path string) {
	for _, a := range properAncestors(path) {
		set.Add(a)
	}
}

// setValues flattens a sorted string set into a slice, in ascending order.
func setValues(set *treeset.Set) []string {
	values := set.Values()
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.(string)
	}
	return out
}

// reversed flips sorted-ascending into deepest-first, the order rmdirs
// must be attempted in.
func reversed(in []string) []string {
	for i, j := 0, len(in)-1; i < j; i, j = i+1, j-1 {
		in[i], in[j] = in[j], in[i]
	}
	return in
}
