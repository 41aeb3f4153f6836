package treediff_test

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/suite"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/filemode"
	"github.com/gitcore-go/gitcore/plumbing/object"
	"github.com/gitcore-go/gitcore/storage"
	"github.com/gitcore-go/gitcore/storage/dotgit"
	"github.com/gitcore-go/gitcore/treediff"
)

// TreeDiffSuite checks that the recursive tree comparer surfaces only leaf
// changes with at least one file side, and prunes subtrees whose OIDs
// already match without descending into them.
type TreeDiffSuite struct {
	suite.Suite
	db *storage.Database
}

func (s *TreeDiffSuite) SetupTest() {
	fs := memfs.New()
	dg := dotgit.New(fs)
	s.Require().NoError(dg.Initialize())
	s.db = storage.NewDatabase(dg)
}

func TestTreeDiffSuite(t *testing.T) {
	suite.Run(t, new(TreeDiffSuite))
}

func (s *TreeDiffSuite) blob(content string) plumbing.Hash {
	h, err := s.db.StoreBlob(object.NewBlob([]byte(content)))
	s.Require().NoError(err)
	return h
}

func (s *TreeDiffSuite) tree(entries ...object.TreeEntry) plumbing.Hash {
	h, err := s.db.StoreTree(object.NewTree(entries))
	s.Require().NoError(err)
	return h
}

func (s *TreeDiffSuite) TestIdenticalTreesHaveNoDiff() {
	h := s.blob("same\n")
	t1 := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: h})

	d, err := treediff.CompareOIDs(s.db, t1, t1)
	s.Require().NoError(err)
	s.True(d.Empty())
}

func (s *TreeDiffSuite) TestAddedPathHasNilOld() {
	ha := s.blob("a\n")
	hb := s.blob("b\n")

	t1 := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: ha})
	t2 := s.tree(
		object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: ha},
		object.TreeEntry{Name: "b.txt", Mode: filemode.Regular, Hash: hb},
	)

	d, err := treediff.CompareOIDs(s.db, t1, t2)
	s.Require().NoError(err)
	s.Equal([]string{"b.txt"}, d.Paths())

	c, ok := d.Get("b.txt")
	s.Require().True(ok)
	s.Nil(c.Old)
	s.Require().NotNil(c.New)
	s.Equal(hb, c.New.Hash)
}

func (s *TreeDiffSuite) TestRemovedPathHasNilNew() {
	ha := s.blob("a\n")
	hb := s.blob("b\n")

	t1 := s.tree(
		object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: ha},
		object.TreeEntry{Name: "b.txt", Mode: filemode.Regular, Hash: hb},
	)
	t2 := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: ha})

	d, err := treediff.CompareOIDs(s.db, t1, t2)
	s.Require().NoError(err)
	s.Equal([]string{"b.txt"}, d.Paths())

	c, ok := d.Get("b.txt")
	s.Require().True(ok)
	s.Require().NotNil(c.Old)
	s.Nil(c.New)
}

func (s *TreeDiffSuite) TestUnchangedSubtreeIsPruned() {
	h := s.blob("leaf\n")
	inner := s.tree(object.TreeEntry{Name: "x.txt", Mode: filemode.Regular, Hash: h})

	ha := s.blob("a\n")
	hb := s.blob("b\n")

	t1 := s.tree(
		object.TreeEntry{Name: "same", Mode: filemode.Dir, Hash: inner},
		object.TreeEntry{Name: "top.txt", Mode: filemode.Regular, Hash: ha},
	)
	t2 := s.tree(
		object.TreeEntry{Name: "same", Mode: filemode.Dir, Hash: inner},
		object.TreeEntry{Name: "top.txt", Mode: filemode.Regular, Hash: hb},
	)

	d, err := treediff.CompareOIDs(s.db, t1, t2)
	s.Require().NoError(err)
	s.Equal([]string{"top.txt"}, d.Paths())
}

func (s *TreeDiffSuite) TestFileReplacedByDirectoryRecordsBoth() {
	hFile := s.blob("was a file\n")
	hLeaf := s.blob("now a dir\n")
	dirHash := s.tree(object.TreeEntry{Name: "x.txt", Mode: filemode.Regular, Hash: hLeaf})

	t1 := s.tree(object.TreeEntry{Name: "thing", Mode: filemode.Regular, Hash: hFile})
	t2 := s.tree(object.TreeEntry{Name: "thing", Mode: filemode.Dir, Hash: dirHash})

	d, err := treediff.CompareOIDs(s.db, t1, t2)
	s.Require().NoError(err)

	c, ok := d.Get("thing")
	s.Require().True(ok)
	s.Require().NotNil(c.Old)
	s.Nil(c.New)

	c, ok = d.Get("thing/x.txt")
	s.Require().True(ok)
	s.Nil(c.Old)
	s.Require().NotNil(c.New)
}

func (s *TreeDiffSuite) TestAbsentTreeComparesAsEmpty() {
	h := s.blob("new\n")
	t2 := s.tree(object.TreeEntry{Name: "a.txt", Mode: filemode.Regular, Hash: h})

	d, err := treediff.CompareOIDs(s.db, plumbing.ZeroHash, t2)
	s.Require().NoError(err)
	s.Equal([]string{"a.txt"}, d.Paths())
	c, _ := d.Get("a.txt")
	s.Nil(c.Old)
}
