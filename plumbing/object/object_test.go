package object

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/filemode"
)

type ObjectSuite struct {
	suite.Suite
}

func TestObjectSuite(t *testing.T) {
	suite.Run(t, new(ObjectSuite))
}

func (s *ObjectSuite) TestBlobEncode() {
	b := NewBlob([]byte("hello\n"))
	var buf bytes.Buffer
	s.Require().NoError(b.Encode(&buf))
	s.Equal("hello\n", buf.String())
}

func (s *ObjectSuite) TestTreeEncodeSortsDirectoriesAsIfSlashSuffixed() {
	oid := plumbing.NewHash("6ecf0ef2c2dffb796033e5a02219af86ec6584e5")
	tree := NewTree([]TreeEntry{
		{Name: "foo-bar", Mode: filemode.Regular, Hash: oid},
		{Name: "foo", Mode: filemode.Dir, Hash: oid},
		{Name: "foo.txt", Mode: filemode.Regular, Hash: oid},
	})

	var names []string
	for _, e := range tree.Entries {
		names = append(names, e.Name)
	}
	s.Equal([]string{"foo-bar", "foo.txt", "foo"}, names)
}

func (s *ObjectSuite) TestTreeEncodeDecodeRoundTrip() {
	oidA := plumbing.NewHash("6ecf0ef2c2dffb796033e5a02219af86ec6584e5")
	oidB := plumbing.NewHash("f000000000000000000000000000000000000001")

	tree := NewTree([]TreeEntry{
		{Name: "a.txt", Mode: filemode.Regular, Hash: oidA},
		{Name: "sub", Mode: filemode.Dir, Hash: oidB},
	})

	var buf bytes.Buffer
	s.Require().NoError(tree.Encode(&buf))

	decoded, err := DecodeTree(plumbing.ZeroHash, buf.Bytes())
	s.Require().NoError(err)
	s.Equal(tree.Entries, decoded.Entries)
}

func (s *ObjectSuite) TestCommitEncodeDecodeRoundTrip() {
	when := time.Unix(1257894000, 0).In(time.FixedZone("", 3600))
	c := &Commit{
		TreeHash:     plumbing.NewHash("f000000000000000000000000000000000000001"),
		ParentHashes: []plumbing.Hash{plumbing.NewHash("f000000000000000000000000000000000000002")},
		Author:       Signature{Name: "Foo", Email: "foo@example.local", When: when},
		Committer:    Signature{Name: "Bar", Email: "bar@example.local", When: when},
		Message:      "Initial commit\n",
	}

	var buf bytes.Buffer
	s.Require().NoError(c.Encode(&buf))

	decoded, err := DecodeCommit(plumbing.ZeroHash, buf.Bytes())
	s.Require().NoError(err)
	s.Equal(c.TreeHash, decoded.TreeHash)
	s.Equal(c.ParentHashes, decoded.ParentHashes)
	s.Equal(c.Author.Name, decoded.Author.Name)
	s.Equal(c.Author.Email, decoded.Author.Email)
	s.Equal(c.Author.When.Unix(), decoded.Author.When.Unix())
	s.Equal(c.Message, decoded.Message)
}

func (s *ObjectSuite) TestCommitRootHasNoParentLine() {
	c := &Commit{
		TreeHash:  plumbing.NewHash("f000000000000000000000000000000000000001"),
		Author:    Signature{Name: "Foo", Email: "foo@example.local", When: time.Unix(0, 0).UTC()},
		Committer: Signature{Name: "Foo", Email: "foo@example.local", When: time.Unix(0, 0).UTC()},
		Message:   "root\n",
	}

	var buf bytes.Buffer
	s.Require().NoError(c.Encode(&buf))
	s.NotContains(buf.String(), "parent ")

	decoded, err := DecodeCommit(plumbing.ZeroHash, buf.Bytes())
	s.Require().NoError(err)
	s.Equal(0, decoded.NumParents())
}

func (s *ObjectSuite) TestSignatureDecode() {
	var sig Signature
	sig.Decode([]byte("Foo Bar <foo@bar.com> 1257894000 +0100"))
	s.Equal("Foo Bar", sig.Name)
	s.Equal("foo@bar.com", sig.Email)
	s.Equal(int64(1257894000), sig.When.Unix())
}
