package migration_test

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/suite"

	"github.com/gitcore-go/gitcore/migration"
	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/filemode"
	"github.com/gitcore-go/gitcore/plumbing/format/index"
	"github.com/gitcore-go/gitcore/plumbing/object"
	"github.com/gitcore-go/gitcore/storage"
	"github.com/gitcore-go/gitcore/storage/dotgit"
	"github.com/gitcore-go/gitcore/treediff"
	"github.com/gitcore-go/gitcore/workspace"
)

// MigrationSuite covers conflict detection that refuses to destroy
// uncommitted work, and the delete/rmdir/mkdir/update/create
// application sequence for the conflict-free case. Diffs are produced the
// same way Repository.Checkout produces them, via treediff.CompareOIDs
// over real stored trees, rather than constructed by hand.
type MigrationSuite struct {
	suite.Suite
	db  *storage.Database
	ws  *workspace.Workspace
	idx *index.Index
}

func (s *MigrationSuite) SetupTest() {
	gitFS := memfs.New()
	dg := dotgit.New(gitFS)
	s.Require().NoError(dg.Initialize())
	s.db = storage.NewDatabase(dg)

	s.ws = workspace.New(memfs.New())
	s.idx = index.New()
}

func TestMigrationSuite(t *testing.T) {
	suite.Run(t, new(MigrationSuite))
}

func (s *MigrationSuite) blob(content string) plumbing.Hash {
	h, err := s.db.StoreBlob(object.NewBlob([]byte(content)))
	s.Require().NoError(err)
	return h
}

func (s *MigrationSuite) tree(entries ...object.TreeEntry) plumbing.Hash {
	h, err := s.db.StoreTree(object.NewTree(entries))
	s.Require().NoError(err)
	return h
}

func (s *MigrationSuite) diff(a, b plumbing.Hash) *treediff.Diff {
	d, err := treediff.CompareOIDs(s.db, a, b)
	s.Require().NoError(err)
	return d
}

func (s *MigrationSuite) stageFile(path, content string) plumbing.Hash {
	h := s.blob(content)
	s.Require().NoError(s.ws.WriteBlob(path, object.NewBlob([]byte(content)), filemode.Regular))
	st, err := s.ws.StatFile(path)
	s.Require().NoError(err)
	s.idx.Add(path, h, st)
	return h
}

func (s *MigrationSuite) TestCreatePlanWritesNewFile() {
	h := s.blob("hello\n")
	t2 := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: h})

	plan, err := migration.Plan(s.db, s.ws, s.idx, s.diff(plumbing.ZeroHash, t2))
	s.Require().NoError(err)
	s.Equal([]string{"a.txt"}, plan.Creates())

	s.Require().NoError(plan.Apply())

	content, err := s.ws.ReadFile("a.txt")
	s.Require().NoError(err)
	s.Equal("hello\n", string(content))

	_, ok := s.idx.EntryForPath("a.txt")
	s.True(ok)
}

func (s *MigrationSuite) TestDeletePlanRemovesFile() {
	s.stageFile("a.txt", "bye\n")
	h := s.blob("bye\n")
	t1 := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: h})

	plan, err := migration.Plan(s.db, s.ws, s.idx, s.diff(t1, plumbing.ZeroHash))
	s.Require().NoError(err)
	s.Equal([]string{"a.txt"}, plan.Deletes())
	s.Require().NoError(plan.Apply())

	s.False(s.ws.Exists("a.txt"))
	_, ok := s.idx.EntryForPath("a.txt")
	s.False(ok)
}

func (s *MigrationSuite) TestStaleFileConflictBlocksMigration() {
	oldHash := s.stageFile("a.txt", "old\n")
	newHash := s.blob("new\n")

	s.Require().NoError(s.ws.WriteBlob("a.txt", object.NewBlob([]byte("locally edited\n")), filemode.Regular))

	t1 := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: oldHash})
	t2 := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: newHash})

	_, err := migration.Plan(s.db, s.ws, s.idx, s.diff(t1, t2))
	s.Require().Error(err)

	var conflictErr *migration.ConflictError
	s.Require().ErrorAs(err, &conflictErr)
	s.Contains(conflictErr.Groups[migration.StaleFile], "a.txt")
}

func (s *MigrationSuite) TestUntrackedFileBlocksOverwrite() {
	s.Require().NoError(s.ws.WriteBlob("a.txt", object.NewBlob([]byte("untracked content\n")), filemode.Regular))

	newHash := s.blob("incoming\n")
	t2 := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: newHash})

	_, err := migration.Plan(s.db, s.ws, s.idx, s.diff(plumbing.ZeroHash, t2))
	s.Require().Error(err)

	var conflictErr *migration.ConflictError
	s.Require().ErrorAs(err, &conflictErr)
	s.Contains(conflictErr.Groups[migration.UntrackedOverwritten], "a.txt")
}

func (s *MigrationSuite) TestConflictLeavesIndexAndWorkspaceUntouched() {
	oldHash := s.stageFile("a.txt", "old\n")
	newHash := s.blob("new\n")

	s.Require().NoError(s.ws.WriteBlob("a.txt", object.NewBlob([]byte("locally edited\n")), filemode.Regular))

	t1 := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: oldHash})
	t2 := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: newHash})

	_, err := migration.Plan(s.db, s.ws, s.idx, s.diff(t1, t2))
	s.Require().Error(err)

	content, err := s.ws.ReadFile("a.txt")
	s.Require().NoError(err)
	s.Equal("locally edited\n", string(content))

	e, ok := s.idx.EntryForPath("a.txt")
	s.Require().True(ok)
	s.Equal(oldHash, e.Hash)
}
