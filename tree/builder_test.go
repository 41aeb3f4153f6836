package tree_test

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/suite"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/filemode"
	"github.com/gitcore-go/gitcore/plumbing/format/index"
	"github.com/gitcore-go/gitcore/plumbing/object"
	"github.com/gitcore-go/gitcore/storage"
	"github.com/gitcore-go/gitcore/storage/dotgit"
	"github.com/gitcore-go/gitcore/tree"
)

// BuilderSuite covers assembling a nested tree from flat, path-sorted
// index entries and persisting every subtree postorder.
type BuilderSuite struct {
	suite.Suite
	db *storage.Database
}

func (s *BuilderSuite) SetupTest() {
	fs := memfs.New()
	dg := dotgit.New(fs)
	s.Require().NoError(dg.Initialize())
	s.db = storage.NewDatabase(dg)
}

func TestBuilderSuite(t *testing.T) {
	suite.Run(t, new(BuilderSuite))
}

func entryFor(path string, h plumbing.Hash) *index.Entry {
	idx := index.New()
	idx.Add(path, h, index.Stat{Mode: filemode.Regular})
	e, _ := idx.EntryForPath(path)
	return e
}

func (s *BuilderSuite) blob(content string) plumbing.Hash {
	h, err := s.db.StoreBlob(object.NewBlob([]byte(content)))
	s.Require().NoError(err)
	return h
}

func (s *BuilderSuite) TestEmptyIndexYieldsEmptyTree() {
	root, err := tree.Build(nil).Store(s.db.StoreTree)
	s.Require().NoError(err)

	loaded, err := s.db.LoadTree(root)
	s.Require().NoError(err)
	s.Empty(loaded.Entries)
}

func (s *BuilderSuite) TestFlatEntriesProduceOneLevelTree() {
	entries := []*index.Entry{
		entryFor("a.txt", s.blob("a\n")),
		entryFor("b.txt", s.blob("b\n")),
	}

	root, err := tree.Build(entries).Store(s.db.StoreTree)
	s.Require().NoError(err)

	loaded, err := s.db.LoadTree(root)
	s.Require().NoError(err)
	s.Require().Len(loaded.Entries, 2)
	s.Equal("a.txt", loaded.Entries[0].Name)
	s.Equal("b.txt", loaded.Entries[1].Name)
}

func (s *BuilderSuite) TestNestedPathProducesIntermediateSubtrees() {
	entries := []*index.Entry{
		entryFor("a/b/c/hello.txt", s.blob("hi\n")),
	}

	root, err := tree.Build(entries).Store(s.db.StoreTree)
	s.Require().NoError(err)

	top, err := s.db.LoadTree(root)
	s.Require().NoError(err)
	s.Require().Len(top.Entries, 1)
	s.Equal("a", top.Entries[0].Name)
	s.Equal(filemode.Dir, top.Entries[0].Mode)

	a, err := s.db.LoadTree(top.Entries[0].Hash)
	s.Require().NoError(err)
	s.Require().Len(a.Entries, 1)
	s.Equal("b", a.Entries[0].Name)

	b, err := s.db.LoadTree(a.Entries[0].Hash)
	s.Require().NoError(err)
	s.Require().Len(b.Entries, 1)
	s.Equal("c", b.Entries[0].Name)

	c, err := s.db.LoadTree(b.Entries[0].Hash)
	s.Require().NoError(err)
	s.Require().Len(c.Entries, 1)
	s.Equal("hello.txt", c.Entries[0].Name)
	s.Equal(filemode.Regular, c.Entries[0].Mode)
}

// Two builds from identical content produce the same root OID.
func (s *BuilderSuite) TestIdenticalContentProducesIdenticalOID() {
	mk := func() plumbing.Hash {
		entries := []*index.Entry{
			entryFor("x.txt", s.blob("same\n")),
			entryFor("dir/y.txt", s.blob("same2\n")),
		}
		root, err := tree.Build(entries).Store(s.db.StoreTree)
		s.Require().NoError(err)
		return root
	}

	s.Equal(mk(), mk())
}
