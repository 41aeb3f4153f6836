// Package repository wires the lockfile, workspace, object database,
// reference store, index, tree builder, tree differ, status engine,
// migration planner and revision resolver into the operations a single
// ".git" directory supports: init, add, commit, status, diff, branch,
// checkout and log.
package repository

import (
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/gitcore-go/gitcore/migration"
	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/format/index"
	"github.com/gitcore-go/gitcore/plumbing/object"
	"github.com/gitcore-go/gitcore/revision"
	"github.com/gitcore-go/gitcore/status"
	"github.com/gitcore-go/gitcore/storage"
	"github.com/gitcore-go/gitcore/storage/dotgit"
	"github.com/gitcore-go/gitcore/tree"
	"github.com/gitcore-go/gitcore/treediff"
	"github.com/gitcore-go/gitcore/workspace"
)

// ErrNoAuthorIdentity is returned by Commit when GIT_AUTHOR_NAME or
// GIT_AUTHOR_EMAIL is unset.
var ErrNoAuthorIdentity = errors.New("repository: GIT_AUTHOR_NAME and GIT_AUTHOR_EMAIL must be set")

// ErrPathspec is returned by Add when a given path matches nothing in the
// workspace.
var ErrPathspec = errors.New("repository: pathspec did not match any files")

// Repository is a single working tree plus its ".git" directory, each
// rooted at its own billy.Filesystem.
type Repository struct {
	ws   *workspace.Workspace
	db   *storage.Database
	refs *storage.RefStorage
	dg   *dotgit.DotGit
	rev  *revision.Resolver
}

// Init creates a new repository skeleton under gitFS and returns a
// Repository over it and worktreeFS.
func Init(worktreeFS, gitFS billy.Filesystem) (*Repository, error) {
	dg := dotgit.New(gitFS)
	if err := dg.Initialize(); err != nil {
		return nil, err
	}

	refs := storage.NewRefStorage(dg)
	if err := refs.SetSymbolicHead(plumbing.NewBranchReferenceName("master")); err != nil {
		return nil, err
	}

	return Open(worktreeFS, gitFS), nil
}

// Open wraps an existing repository's working tree and git directory.
func Open(worktreeFS, gitFS billy.Filesystem) *Repository {
	dg := dotgit.New(gitFS)
	db := storage.NewDatabase(dg)
	refs := storage.NewRefStorage(dg)
	return &Repository{
		ws:   workspace.New(worktreeFS),
		db:   db,
		refs: refs,
		dg:   dg,
		rev:  revision.New(db, refs),
	}
}

// Database returns the repository's object store.
func (r *Repository) Database() *storage.Database { return r.db }

// Refs returns the repository's reference store.
func (r *Repository) Refs() *storage.RefStorage { return r.refs }

// Resolver returns the repository's revision resolver.
func (r *Repository) Resolver() *revision.Resolver { return r.rev }

func (r *Repository) loadIndex() (*index.Index, error) {
	return index.LoadForUpdate(r.dg.Filesystem(), r.dg.IndexPath())
}

// Add canonicalizes each path relative to the workspace root, expands
// directories recursively, and stages every matched file.
func (r *Repository) Add(paths []string) error {
	idx, err := r.loadIndex()
	if err != nil {
		return err
	}

	if err := r.addPaths(idx, paths); err != nil {
		_ = idx.Rollback()
		return err
	}

	return idx.WriteUpdates()
}

func (r *Repository) addPaths(idx *index.Index, paths []string) error {
	// Expand every pathspec before staging anything, so a miss leaves the
	// index untouched.
	var files []string
	for _, p := range paths {
		rel := path.Clean(p)
		if !r.ws.Exists(rel) {
			return fmt.Errorf("%w: %q", ErrPathspec, p)
		}

		expanded, err := r.ws.ListFiles(rel)
		if err != nil {
			return err
		}
		files = append(files, expanded...)
	}

	for _, f := range files {
		if err := r.addFile(idx, f); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) addFile(idx *index.Index, rel string) error {
	content, err := r.ws.ReadFile(rel)
	if err != nil {
		return err
	}
	st, err := r.ws.StatFile(rel)
	if err != nil {
		return err
	}

	h, err := r.db.StoreBlob(object.NewBlob(content))
	if err != nil {
		return err
	}

	idx.Add(rel, h, st)
	return nil
}

// Status reconciles HEAD, the index and the workspace.
func (r *Repository) Status() (*status.Report, error) {
	idx, err := r.loadIndex()
	if err != nil {
		return nil, err
	}

	head, _, err := r.refs.ReadHead()
	if err != nil {
		_ = idx.WriteUpdates()
		return nil, err
	}

	headTree := plumbing.ZeroHash
	if !head.IsZero() {
		c, err := r.db.LoadCommit(head)
		if err != nil {
			_ = idx.WriteUpdates()
			return nil, err
		}
		headTree = c.TreeHash
	}

	report, err := status.Scan(r.ws, idx, r.db, headTree)
	if err != nil {
		_ = idx.WriteUpdates()
		return nil, err
	}

	if err := idx.WriteUpdates(); err != nil {
		return nil, err
	}
	return report, nil
}

// Identity is the author/committer pair a commit is recorded under.
type Identity struct {
	Name  string
	Email string
}

// IdentityFromEnv reads GIT_AUTHOR_NAME and GIT_AUTHOR_EMAIL, failing if
// either is unset.
func IdentityFromEnv() (Identity, error) {
	name, email := os.Getenv("GIT_AUTHOR_NAME"), os.Getenv("GIT_AUTHOR_EMAIL")
	if name == "" || email == "" {
		return Identity{}, ErrNoAuthorIdentity
	}
	return Identity{Name: name, Email: email}, nil
}

// Commit builds a tree from the current index, writes the tree and commit
// objects, and advances the current branch (or HEAD, if detached) to the
// new commit.
func (r *Repository) Commit(message string, who Identity, when time.Time) (plumbing.Hash, error) {
	idx, err := r.loadIndex()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	defer idx.WriteUpdates()

	treeHash, err := tree.Build(idx.Entries()).Store(r.db.StoreTree)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	parent, hasParent, err := r.refs.ReadHead()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	c := &object.Commit{
		TreeHash: treeHash,
		Author:   object.Signature{Name: who.Name, Email: who.Email, When: when},
		Message:  message,
	}
	c.Committer = c.Author
	if hasParent {
		c.ParentHashes = []plumbing.Hash{parent}
	}

	h, err := r.db.StoreCommit(c)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if err := r.refs.UpdateHead(h); err != nil {
		return plumbing.ZeroHash, err
	}
	return h, nil
}

// Diff returns the tree-diff of either the staged changes (HEAD's tree
// against the index, i.e. "diff --cached") or the unstaged ones (the index
// against the workspace).
func (r *Repository) Diff(cached bool) (*treediff.Diff, error) {
	idx, err := r.loadIndex()
	if err != nil {
		return nil, err
	}
	defer idx.WriteUpdates()

	head, _, err := r.refs.ReadHead()
	if err != nil {
		return nil, err
	}

	indexTreeHash, err := tree.Build(idx.Entries()).Store(r.db.StoreTree)
	if err != nil {
		return nil, err
	}

	if cached {
		var headTree plumbing.Hash
		if !head.IsZero() {
			c, err := r.db.LoadCommit(head)
			if err != nil {
				return nil, err
			}
			headTree = c.TreeHash
		}
		return treediff.CompareOIDs(r.db, headTree, indexTreeHash)
	}

	workspaceTreeHash, err := r.snapshotWorkspaceTree(idx)
	if err != nil {
		return nil, err
	}
	return treediff.CompareOIDs(r.db, indexTreeHash, workspaceTreeHash)
}

// snapshotWorkspaceTree builds (without persisting to the index) a tree
// reflecting the current on-disk content of every already-tracked path, so
// an unstaged diff can reuse the same tree comparer as a staged one.
func (r *Repository) snapshotWorkspaceTree(idx *index.Index) (plumbing.Hash, error) {
	entries := idx.Entries()
	snapshot := make([]*index.Entry, len(entries))
	for i, e := range entries {
		if !r.ws.Exists(e.Path) || r.ws.IsDir(e.Path) {
			snapshot[i] = e
			continue
		}
		content, err := r.ws.ReadFile(e.Path)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		h := storage.HashObject(plumbing.BlobObject, content)
		if h == e.Hash {
			snapshot[i] = e
			continue
		}
		if _, err := r.db.StoreBlob(object.NewBlob(content)); err != nil {
			return plumbing.ZeroHash, err
		}
		clone := *e
		clone.Hash = h
		snapshot[i] = &clone
	}
	return tree.Build(snapshot).Store(r.db.StoreTree)
}

// CreateBranch, DeleteBranch and ListBranches delegate to the reference
// store; Checkout moves HEAD (and the workspace and index) to rev.

// CreateBranch creates refs/heads/<name> at start (or HEAD, if zero).
func (r *Repository) CreateBranch(name string, start plumbing.Hash) error {
	if start.IsZero() {
		head, ok, err := r.refs.ReadHead()
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("repository: no commits yet")
		}
		start = head
	}
	return r.refs.CreateBranch(name, start)
}

// DeleteBranch removes refs/heads/<name>, returning the OID it pointed at.
func (r *Repository) DeleteBranch(name string) (plumbing.Hash, error) {
	return r.refs.DeleteBranch(name)
}

// ListBranches enumerates every local branch.
func (r *Repository) ListBranches() ([]*plumbing.Reference, error) {
	return r.refs.ListBranches()
}

// CurrentRef returns the name HEAD's symbolic chain currently terminates
// at (itself, if HEAD is detached).
func (r *Repository) CurrentRef() (plumbing.ReferenceName, error) {
	return r.refs.CurrentRef()
}

// CheckoutResult reports what Checkout changed, for the CLI's "Previous
// HEAD was …" / "HEAD is now at …" / "Switched to branch …" messages.
type CheckoutResult struct {
	PreviousOID    plumbing.Hash
	NewOID         plumbing.Hash
	PreviousBranch plumbing.ReferenceName
	Detached       bool
}

// Checkout resolves rev, diffs the target tree against HEAD's, applies
// the resulting migration, and points HEAD at rev (the branch it names, or the
// resolved OID directly for a detached checkout).
func (r *Repository) Checkout(rev string) (*CheckoutResult, error) {
	target, err := r.rev.Resolve(rev)
	if err != nil {
		return nil, err
	}

	idx, err := r.loadIndex()
	if err != nil {
		return nil, err
	}

	previousOID, _, err := r.refs.ReadHead()
	if err != nil {
		_ = idx.WriteUpdates()
		return nil, err
	}
	previousBranch, err := r.refs.CurrentRef()
	if err != nil {
		_ = idx.WriteUpdates()
		return nil, err
	}

	var previousTree plumbing.Hash
	if !previousOID.IsZero() {
		prev, err := r.db.LoadCommit(previousOID)
		if err != nil {
			_ = idx.WriteUpdates()
			return nil, err
		}
		previousTree = prev.TreeHash
	}
	next, err := r.db.LoadCommit(target)
	if err != nil {
		_ = idx.WriteUpdates()
		return nil, err
	}

	diff, err := treediff.CompareOIDs(r.db, previousTree, next.TreeHash)
	if err != nil {
		_ = idx.WriteUpdates()
		return nil, err
	}

	plan, err := migration.Plan(r.db, r.ws, idx, diff)
	if err != nil {
		_ = idx.WriteUpdates()
		return nil, err
	}

	if err := plan.Apply(); err != nil {
		_ = idx.WriteUpdates()
		return nil, err
	}

	if err := idx.WriteUpdates(); err != nil {
		return nil, err
	}

	if err := r.refs.SetHead(rev, target); err != nil {
		return nil, err
	}

	return &CheckoutResult{
		PreviousOID:    previousOID,
		NewOID:         target,
		PreviousBranch: previousBranch,
		Detached:       previousBranch == plumbing.HEAD,
	}, nil
}

// LogEntry is one commit visited by Log.
type LogEntry struct {
	Hash   plumbing.Hash
	Commit *object.Commit
}

// Log walks the first-parent chain from start, newest first.
func (r *Repository) Log(start plumbing.Hash) ([]LogEntry, error) {
	var out []LogEntry
	for h := start; !h.IsZero(); {
		c, err := r.db.LoadCommit(h)
		if err != nil {
			return nil, err
		}
		out = append(out, LogEntry{Hash: h, Commit: c})
		if len(c.ParentHashes) == 0 {
			break
		}
		h = c.ParentHashes[0]
	}
	return out, nil
}
