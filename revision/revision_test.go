package revision_test

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/suite"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/object"
	"github.com/gitcore-go/gitcore/revision"
	"github.com/gitcore-go/gitcore/storage"
	"github.com/gitcore-go/gitcore/storage/dotgit"
)

type RevisionSuite struct {
	suite.Suite
	db    *storage.Database
	refs  *storage.RefStorage
	rev   *revision.Resolver
	chain []plumbing.Hash // oldest first; chain[len-1] is HEAD
}

func TestRevisionSuite(t *testing.T) {
	suite.Run(t, new(RevisionSuite))
}

func (s *RevisionSuite) SetupTest() {
	fs := memfs.New()
	dg := dotgit.New(fs)
	s.Require().NoError(dg.Initialize())

	s.db = storage.NewDatabase(dg)
	s.refs = storage.NewRefStorage(dg)
	s.rev = revision.New(s.db, s.refs)

	tree := object.NewTree(nil)
	treeHash, err := s.db.StoreTree(tree)
	s.Require().NoError(err)

	var parent plumbing.Hash
	s.chain = nil
	for i := 0; i < 4; i++ {
		c := &object.Commit{
			TreeHash: treeHash,
			Author:   object.Signature{Name: "a", Email: "a@example.com", When: time.Unix(int64(1000+i), 0)},
		}
		c.Committer = c.Author
		c.Message = "commit\n"
		if !parent.IsZero() || i > 0 {
			c.ParentHashes = []plumbing.Hash{parent}
		}
		h, err := s.db.StoreCommit(c)
		s.Require().NoError(err)
		s.chain = append(s.chain, h)
		parent = h
	}

	s.Require().NoError(s.refs.CreateBranch("master", s.chain[len(s.chain)-1]))
	f, err := fs.Create("HEAD")
	s.Require().NoError(err)
	_, err = f.Write([]byte("ref: refs/heads/master\n"))
	s.Require().NoError(err)
	s.Require().NoError(f.Close())
}

func (s *RevisionSuite) head() plumbing.Hash { return s.chain[len(s.chain)-1] }

func (s *RevisionSuite) TestResolveHEAD() {
	h, err := s.rev.Resolve("HEAD")
	s.Require().NoError(err)
	s.Equal(s.head(), h)
}

func (s *RevisionSuite) TestResolveAtAlias() {
	h, err := s.rev.Resolve("@")
	s.Require().NoError(err)
	s.Equal(s.head(), h)
}

func (s *RevisionSuite) TestResolveBranchName() {
	h, err := s.rev.Resolve("master")
	s.Require().NoError(err)
	s.Equal(s.head(), h)
}

func (s *RevisionSuite) TestResolveParent() {
	h, err := s.rev.Resolve("HEAD^")
	s.Require().NoError(err)
	s.Equal(s.chain[2], h)
}

func (s *RevisionSuite) TestResolveAncestor() {
	h, err := s.rev.Resolve("HEAD~2")
	s.Require().NoError(err)
	s.Equal(s.chain[1], h)
}

func (s *RevisionSuite) TestResolveComposedSuffixes() {
	h, err := s.rev.Resolve("master~1^")
	s.Require().NoError(err)
	s.Equal(s.chain[1], h)
}

func (s *RevisionSuite) TestResolveShortOID() {
	full := s.head().String()
	h, err := s.rev.Resolve(full[:8])
	s.Require().NoError(err)
	s.Equal(s.head(), h)
}

func (s *RevisionSuite) TestResolveUnknownNameFails() {
	_, err := s.rev.Resolve("no-such-branch")
	s.Require().ErrorIs(err, revision.ErrBadRevision)
}

func (s *RevisionSuite) TestResolveParentPastRootFails() {
	_, err := s.rev.Resolve("HEAD~10")
	s.Require().ErrorIs(err, revision.ErrBadRevision)
}

func (s *RevisionSuite) TestResolveBlobIsNotACommit() {
	b, err := s.db.StoreBlob(object.NewBlob([]byte("hi")))
	s.Require().NoError(err)

	_, err = s.rev.Resolve(b.String())
	s.Require().Error(err)
}
