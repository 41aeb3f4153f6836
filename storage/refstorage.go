package storage

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/gitcore-go/gitcore/lockfile"
	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/storage/dotgit"
)

// ErrInvalidBranchName is returned when a branch name fails the naming
// predicate below.
var ErrInvalidBranchName = fmt.Errorf("invalid branch name")

// ErrBranchExists is returned by CreateBranch when the branch already has a
// ref file.
var ErrBranchExists = fmt.Errorf("branch already exists")

// ErrBranchMissing is returned by DeleteBranch when the branch has no ref
// file.
var ErrBranchMissing = fmt.Errorf("branch not found")

// invalidBranchName matches any branch name this store refuses to create: one
// starting with ".", containing "/." or "..", ending in "/" or ".lock",
// containing "@{", or containing a disallowed control/shell character.
var invalidBranchName = regexp.MustCompile(
	`^\.|\/\.|\.\.|\/$|\.lock$|@\{|[\x00-\x20*:?\[\\^~\x7f]`,
)

// RefStorage is the reference layer: HEAD's symbolic chain, and the local
// branch refs under refs/heads/.
type RefStorage struct {
	dg *dotgit.DotGit
}

// NewRefStorage wraps dg as a reference store.
func NewRefStorage(dg *dotgit.DotGit) *RefStorage {
	return &RefStorage{dg: dg}
}

// ReadHead follows HEAD's symbolic chain to a direct OID, returning
// plumbing.ZeroHash (ok=false) for a newborn repository whose branch has no
// commits yet.
func (s *RefStorage) ReadHead() (h plumbing.Hash, ok bool, err error) {
	return s.readRefChain(plumbing.HEAD)
}

// readRefChain follows a possibly-symbolic ref to its terminal OID.
func (s *RefStorage) readRefChain(name plumbing.ReferenceName) (plumbing.Hash, bool, error) {
	ref, err := s.readRef(name)
	if err != nil {
		if os.IsNotExist(err) {
			return plumbing.ZeroHash, false, nil
		}
		return plumbing.ZeroHash, false, err
	}
	if ref.Type() == plumbing.SymbolicReference {
		return s.readRefChain(ref.Target())
	}
	return ref.Hash(), true, nil
}

func (s *RefStorage) readRef(name plumbing.ReferenceName) (*plumbing.Reference, error) {
	path := s.dg.RefPath(name)
	raw, err := s.dg.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return plumbing.NewReferenceFromStrings(string(name), strings.TrimSpace(string(raw))), nil
}

// ValidBranchName reports whether name passes the branch-naming predicate.
// The revision resolver reuses this to validate a bare <name> token before
// treating it as a ref or short OID.
func ValidBranchName(name string) bool {
	return !invalidBranchName.MatchString(name)
}

// ResolveName resolves a bare or fully-qualified reference name: "HEAD"
// follows HEAD's own chain; anything else is tried first as given (so a
// fully-qualified "refs/heads/x" works) and then as a local branch name.
// ok is false, with a nil error, when name matches no ref at all.
func (s *RefStorage) ResolveName(name string) (h plumbing.Hash, ok bool, err error) {
	if name == plumbing.HEAD.String() {
		return s.ReadHead()
	}

	candidates := []plumbing.ReferenceName{
		plumbing.ReferenceName(name),
		plumbing.NewBranchReferenceName(name),
	}
	for _, n := range candidates {
		h, ok, err := s.readRefChain(n)
		if err != nil {
			return plumbing.ZeroHash, false, err
		}
		if ok {
			return h, true, nil
		}
	}
	return plumbing.ZeroHash, false, nil
}

// CurrentRef walks HEAD's symbolic chain and returns the terminal symbolic
// reference name: the "current branch". If HEAD is itself a direct OID
// (detached), CurrentRef returns HEAD itself.
func (s *RefStorage) CurrentRef() (plumbing.ReferenceName, error) {
	return s.currentRef(plumbing.HEAD)
}

func (s *RefStorage) currentRef(name plumbing.ReferenceName) (plumbing.ReferenceName, error) {
	ref, err := s.readRef(name)
	if err != nil {
		if os.IsNotExist(err) {
			return name, nil
		}
		return "", err
	}
	if ref.Type() != plumbing.SymbolicReference {
		return name, nil
	}
	return s.currentRef(ref.Target())
}

// UpdateHead writes h as the new value HEAD's chain terminates at: if HEAD
// is symbolic, the pointed-to branch is updated; if HEAD is direct
// (detached), HEAD itself is overwritten.
func (s *RefStorage) UpdateHead(h plumbing.Hash) error {
	target, err := s.currentRef(plumbing.HEAD)
	if err != nil {
		return err
	}
	return s.writeRef(target, plumbing.NewHashReference(target, h).String())
}

// SetSymbolicHead points HEAD at target unconditionally, without requiring
// target to already exist, the newborn-repository case Init uses, where
// HEAD must name refs/heads/master before a first commit ever creates it.
func (s *RefStorage) SetSymbolicHead(target plumbing.ReferenceName) error {
	line := fmt.Sprintf("ref: %s", target)
	return s.writeRefLine(plumbing.HEAD, line)
}

// SetHead points HEAD at rev: if refs/heads/<rev> exists, HEAD becomes a
// symbolic reference to it; otherwise HEAD is written as the direct OID
// oid (a detached checkout).
func (s *RefStorage) SetHead(rev string, oid plumbing.Hash) error {
	branch := plumbing.NewBranchReferenceName(rev)
	if _, err := s.dg.ReadFile(s.dg.RefPath(branch)); err == nil {
		line := fmt.Sprintf("ref: %s", branch)
		return s.writeRefLine(plumbing.HEAD, line)
	}
	return s.writeRefLine(plumbing.HEAD, oid.String())
}

func (s *RefStorage) writeRef(name plumbing.ReferenceName, rendered string) error {
	// rendered is "<oid> <name>" from Reference.String; the stored form is
	// only the oid.
	fields := strings.Fields(rendered)
	return s.writeRefLine(name, fields[0])
}

func (s *RefStorage) writeRefLine(name plumbing.ReferenceName, line string) error {
	path := s.dg.RefPath(name)
	fs := s.dg.Filesystem()

	if parts := strings.Split(string(name), "/"); len(parts) > 1 {
		dir := fs.Join(parts[:len(parts)-1]...)
		if err := fs.MkdirAll(dir, 0o777); err != nil {
			return err
		}
	}

	lf := lockfile.New(fs, path)
	if err := lf.Hold(); err != nil {
		return err
	}

	if _, err := lf.Write([]byte(line + "\n")); err != nil {
		_ = lf.Rollback()
		return err
	}

	return lf.Commit()
}

// CreateBranch writes refs/heads/<name> = start, failing if name is
// invalid or already exists.
func (s *RefStorage) CreateBranch(name string, start plumbing.Hash) error {
	if invalidBranchName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidBranchName, name)
	}

	branch := plumbing.NewBranchReferenceName(name)
	if _, err := s.dg.ReadFile(s.dg.RefPath(branch)); err == nil {
		return fmt.Errorf("%w: %q", ErrBranchExists, name)
	}

	return s.writeRefLine(branch, start.String())
}

// DeleteBranch removes refs/heads/<name>, returning the OID it pointed at.
func (s *RefStorage) DeleteBranch(name string) (plumbing.Hash, error) {
	branch := plumbing.NewBranchReferenceName(name)
	h, ok, err := s.readRefChain(branch)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if !ok {
		return plumbing.ZeroHash, fmt.Errorf("%w: %q", ErrBranchMissing, name)
	}

	if err := s.dg.Filesystem().Remove(s.dg.RefPath(branch)); err != nil {
		if os.IsNotExist(err) {
			return plumbing.ZeroHash, fmt.Errorf("%w: %q", ErrBranchMissing, name)
		}
		return plumbing.ZeroHash, err
	}
	return h, nil
}

// ListBranches enumerates every local branch, sorted by short name.
func (s *RefStorage) ListBranches() ([]*plumbing.Reference, error) {
	var names []plumbing.ReferenceName
	err := s.dg.WalkBranchRefs(func(name plumbing.ReferenceName) error {
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	refs := make([]*plumbing.Reference, 0, len(names))
	for _, n := range names {
		ref, err := s.readRef(n)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// ReverseRefs maps every stored OID to the list of branch names pointing at
// it directly.
func (s *RefStorage) ReverseRefs() (map[plumbing.Hash][]plumbing.ReferenceName, error) {
	refs, err := s.ListBranches()
	if err != nil {
		return nil, err
	}

	out := make(map[plumbing.Hash][]plumbing.ReferenceName)
	for _, ref := range refs {
		if ref.Type() != plumbing.HashReference {
			continue
		}
		out[ref.Hash()] = append(out[ref.Hash()], ref.Name())
	}
	return out, nil
}
