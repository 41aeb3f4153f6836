// Package status implements the single-pass reconciliation of HEAD tree,
// index, and working tree: a workspace scan classifying every path as
// untracked or changed, and two change maps (workspace-vs-index,
// index-vs-HEAD) the CLI renders.
package status

import (
	"path"
	"sort"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/filemode"
	"github.com/gitcore-go/gitcore/plumbing/format/index"
	"github.com/gitcore-go/gitcore/storage"
	"github.com/gitcore-go/gitcore/workspace"
)

// ChangeType classifies how a path differs between two snapshots.
type ChangeType int

const (
	// Added means the path has no counterpart in the older snapshot.
	Added ChangeType = iota + 1
	// Modified means the path exists in both snapshots with different
	// content or mode.
	Modified
	// Deleted means the path exists in the older snapshot but not the
	// newer one.
	Deleted
)

// String renders a ChangeType the way the long-form status renderer
// labels it.
func (c ChangeType) String() string {
	switch c {
	case Added:
		return "new file"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Report is the full result of a status scan: paths present in the
// workspace but not staged, paths whose workspace content disagrees with
// what's staged, and paths whose staged content disagrees with HEAD.
type Report struct {
	// Untracked holds every trackable path with no index entry, sorted.
	// Directories end in "/".
	Untracked []string
	// Workspace maps a staged path to how its on-disk content compares to
	// what's staged (workspace vs index).
	Workspace map[string]ChangeType
	// Staged maps a path to how its staged content compares to HEAD
	// (index vs HEAD), including paths HEAD has that the index has
	// dropped.
	Staged map[string]ChangeType
}

// IsClean reports whether the report has nothing to show: no untracked
// paths and no changes in either direction.
func (r *Report) IsClean() bool {
	return len(r.Untracked) == 0 && len(r.Workspace) == 0 && len(r.Staged) == 0
}

type leaf struct {
	mode filemode.FileMode
	hash plumbing.Hash
}

// Scan reconciles idx against both ws and the tree at headOID (which may
// be plumbing.ZeroHash for a newborn repository with no commits). Scan
// mutates idx in place via RefreshEntryStat whenever a file's stat has
// drifted but its content still matches; callers that want the refresh to
// persist must still call idx.WriteUpdates after Scan returns.
func Scan(ws *workspace.Workspace, idx *index.Index, db *storage.Database, headOID plumbing.Hash) (*Report, error) {
	stats, untracked, err := scanWorkspace(ws, idx)
	if err != nil {
		return nil, err
	}

	wsChanges, err := compareWorkspace(ws, idx, stats)
	if err != nil {
		return nil, err
	}

	staged, err := compareHead(db, idx, headOID)
	if err != nil {
		return nil, err
	}

	sort.Strings(untracked)
	return &Report{Untracked: untracked, Workspace: wsChanges, Staged: staged}, nil
}

// compareWorkspace checks each index entry against the scanned stats,
// with a stat-cache fast path: a path whose four timestamps still match
// is never reopened or hashed.
func compareWorkspace(ws *workspace.Workspace, idx *index.Index, stats map[string]index.Stat) (map[string]ChangeType, error) {
	changes := make(map[string]ChangeType)

	for _, e := range idx.Entries() {
		st, ok := stats[e.Path]
		switch {
		case !ok:
			changes[e.Path] = Deleted
		case !e.StatMatch(st):
			changes[e.Path] = Modified
		case e.TimesMatch(st):
			// Fast path: metadata unchanged, so content is assumed
			// unchanged without reading the file.
		default:
			content, err := ws.ReadFile(e.Path)
			if err != nil {
				return nil, err
			}
			h := storage.HashObject(plumbing.BlobObject, content)
			if h == e.Hash {
				idx.RefreshEntryStat(e, st)
			} else {
				changes[e.Path] = Modified
			}
		}
	}

	return changes, nil
}

// compareHead checks each index entry against HEAD's flattened tree and
// records HEAD paths the index has dropped as deleted.
func compareHead(db *storage.Database, idx *index.Index, headOID plumbing.Hash) (map[string]ChangeType, error) {
	headLeaves, err := flattenTree(db, headOID)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]ChangeType)
	indexPaths := make(map[string]struct{})

	for _, e := range idx.Entries() {
		indexPaths[e.Path] = struct{}{}
		hl, ok := headLeaves[e.Path]
		switch {
		case !ok:
			changes[e.Path] = Added
		case hl.mode != e.Mode || hl.hash != e.Hash:
			changes[e.Path] = Modified
		}
	}

	for p := range headLeaves {
		if _, ok := indexPaths[p]; !ok {
			changes[p] = Deleted
		}
	}

	return changes, nil
}

func flattenTree(db *storage.Database, oid plumbing.Hash) (map[string]leaf, error) {
	out := make(map[string]leaf)
	if oid.IsZero() {
		return out, nil
	}
	if err := walkTree(db, oid, "", out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkTree(db *storage.Database, oid plumbing.Hash, prefix string, out map[string]leaf) error {
	t, err := db.LoadTree(oid)
	if err != nil {
		return err
	}
	for _, e := range t.Entries {
		p := joinPath(prefix, e.Name)
		if e.Mode == filemode.Dir {
			if err := walkTree(db, e.Hash, p, out); err != nil {
				return err
			}
			continue
		}
		out[p] = leaf{mode: e.Mode, hash: e.Hash}
	}
	return nil
}

// scanWorkspace walks the workspace root, collecting the stat of every
// tracked file and the path of every untracked, trackable one.
func scanWorkspace(ws *workspace.Workspace, idx *index.Index) (map[string]index.Stat, []string, error) {
	stats := make(map[string]index.Stat)
	var untracked []string

	if err := scanDir(ws, idx, "", stats, &untracked); err != nil {
		return nil, nil, err
	}
	return stats, untracked, nil
}

func scanDir(ws *workspace.Workspace, idx *index.Index, relDir string, stats map[string]index.Stat, untracked *[]string) error {
	entries, err := ws.ListDir(relDir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rel := joinPath(relDir, name)
		info := entries[name]

		if info.IsDir() {
			if idx.IsTracked(rel) {
				if err := scanDir(ws, idx, rel, stats, untracked); err != nil {
					return err
				}
				continue
			}
			trackable, err := IsTrackableDir(ws, idx, rel)
			if err != nil {
				return err
			}
			if trackable {
				*untracked = append(*untracked, rel+"/")
			}
			continue
		}

		if idx.IsTracked(rel) {
			st, err := ws.StatFile(rel)
			if err != nil {
				return err
			}
			stats[rel] = st
		} else {
			*untracked = append(*untracked, rel)
		}
	}
	return nil
}

// IsTrackableDir reports whether rel (a directory not itself tracked)
// transitively contains at least one file the index doesn't track. The
// migration planner's conflict detection consults this too.
func IsTrackableDir(ws *workspace.Workspace, idx *index.Index, rel string) (bool, error) {
	files, err := ws.ListFiles(rel)
	if err != nil {
		return false, err
	}
	for _, f := range files {
		if !idx.IsTracked(f) {
			return true, nil
		}
	}
	return false, nil
}

func joinPath(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return path.Join(dir, name)
}
