package workspace_test

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/suite"

	"github.com/gitcore-go/gitcore/plumbing/filemode"
	"github.com/gitcore-go/gitcore/plumbing/object"
	"github.com/gitcore-go/gitcore/workspace"
)

type WorkspaceSuite struct {
	suite.Suite
	fs billy.Filesystem
	ws *workspace.Workspace
}

func (s *WorkspaceSuite) SetupTest() {
	s.fs = memfs.New()
	s.ws = workspace.New(s.fs)
}

func TestWorkspaceSuite(t *testing.T) {
	suite.Run(t, new(WorkspaceSuite))
}

func (s *WorkspaceSuite) writeFile(path, content string) {
	f, err := s.fs.Create(path)
	s.Require().NoError(err)
	_, err = f.Write([]byte(content))
	s.Require().NoError(err)
	s.Require().NoError(f.Close())
}

func (s *WorkspaceSuite) TestListDirExcludesGitDir() {
	s.writeFile("a.txt", "a")
	s.Require().NoError(s.fs.MkdirAll(".git/objects", 0o777))
	s.Require().NoError(s.fs.MkdirAll("sub", 0o777))
	s.writeFile("sub/b.txt", "b")

	entries, err := s.ws.ListDir("")
	s.Require().NoError(err)
	s.Contains(entries, "a.txt")
	s.Contains(entries, "sub")
	s.NotContains(entries, ".git")
}

func (s *WorkspaceSuite) TestListFilesFlattensRecursively() {
	s.writeFile("top.txt", "t")
	s.Require().NoError(s.fs.MkdirAll("outer/inner", 0o777))
	s.writeFile("outer/2.txt", "2")
	s.writeFile("outer/inner/3.txt", "3")

	files, err := s.ws.ListFiles(".")
	s.Require().NoError(err)
	s.Equal([]string{"outer/2.txt", "outer/inner/3.txt", "top.txt"}, files)
}

func (s *WorkspaceSuite) TestListFilesOnFileReturnsItself() {
	s.writeFile("only.txt", "x")

	files, err := s.ws.ListFiles("only.txt")
	s.Require().NoError(err)
	s.Equal([]string{"only.txt"}, files)
}

func (s *WorkspaceSuite) TestReadFile() {
	s.writeFile("a.txt", "hello\n")

	got, err := s.ws.ReadFile("a.txt")
	s.Require().NoError(err)
	s.Equal("hello\n", string(got))
}

func (s *WorkspaceSuite) TestStatFileReportsSizeAndMode() {
	s.writeFile("a.txt", "12345")

	st, err := s.ws.StatFile("a.txt")
	s.Require().NoError(err)
	s.Equal(uint64(5), st.Size)
	s.Equal(filemode.Regular, st.Mode)
}

func (s *WorkspaceSuite) TestRmdirOnlyRemovesEmptyDirectories() {
	s.Require().NoError(s.fs.MkdirAll("full", 0o777))
	s.writeFile("full/keep.txt", "k")

	s.Require().NoError(s.ws.Rmdir("full"))
	s.True(s.ws.IsDir("full"), "a non-empty directory survives Rmdir")

	s.Require().NoError(s.ws.Rmdir("missing"))
}

func (s *WorkspaceSuite) TestMkdirAllReplacesBlockingFile() {
	s.writeFile("thing", "was a file")

	s.Require().NoError(s.ws.MkdirAll("thing"))
	s.True(s.ws.IsDir("thing"))
}

func (s *WorkspaceSuite) TestWriteBlobCreatesParentsAndContent() {
	blob := object.NewBlob([]byte("payload\n"))
	s.Require().NoError(s.ws.WriteBlob("a/b/c.txt", blob, filemode.Regular))

	got, err := s.ws.ReadFile("a/b/c.txt")
	s.Require().NoError(err)
	s.Equal("payload\n", string(got))
}

func (s *WorkspaceSuite) TestWriteBlobTruncatesExisting() {
	s.writeFile("a.txt", "a much longer original content")

	blob := object.NewBlob([]byte("short"))
	s.Require().NoError(s.ws.WriteBlob("a.txt", blob, filemode.Regular))

	got, err := s.ws.ReadFile("a.txt")
	s.Require().NoError(err)
	s.Equal("short", string(got))
}

func (s *WorkspaceSuite) TestRemove() {
	s.writeFile("a.txt", "x")
	s.Require().NoError(s.ws.Remove("a.txt"))
	s.False(s.ws.Exists("a.txt"))
}
