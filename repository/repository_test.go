package repository_test

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/suite"

	"github.com/gitcore-go/gitcore/migration"
	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/repository"
)

// chmod applies POSIX permission bits through billy's optional Chmod
// capability, the same type-assertion workspace.Workspace itself uses.
func chmod(fs billy.Filesystem, path string, mode uint32) error {
	if c, ok := fs.(billy.Change); ok {
		return c.Chmod(path, os.FileMode(mode))
	}
	return nil
}

// RepositorySuite drives the Repository façade end to end the way the CLI
// does, over an in-memory workspace and git directory.
type RepositorySuite struct {
	suite.Suite
	repo     *repository.Repository
	worktree billy.Filesystem
}

func (s *RepositorySuite) SetupTest() {
	worktree := memfs.New()
	gitDir := memfs.New()

	repo, err := repository.Init(worktree, gitDir)
	s.Require().NoError(err)
	s.repo = repo
	s.worktree = worktree
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) writeFile(path, content string) {
	f, err := s.worktree.Create(path)
	s.Require().NoError(err)
	_, err = f.Write([]byte(content))
	s.Require().NoError(err)
	s.Require().NoError(f.Close())
}

func (s *RepositorySuite) readFile(path string) string {
	f, err := s.worktree.Open(path)
	s.Require().NoError(err)
	defer f.Close()
	b, err := io.ReadAll(f)
	s.Require().NoError(err)
	return string(b)
}

func (s *RepositorySuite) identity() repository.Identity {
	return repository.Identity{Name: "A U Thor", Email: "author@example.com"}
}

// An empty, newborn repository reports a clean, empty status.
func (s *RepositorySuite) TestEmptyRepoStatusIsClean() {
	report, err := s.repo.Status()
	s.Require().NoError(err)
	s.True(report.IsClean())
}

// Staging a plain file makes it a staged path and takes it off the
// untracked list.
func (s *RepositorySuite) TestAddPlainFile() {
	s.writeFile("hello.txt", "hello\n")
	s.Require().NoError(s.repo.Add([]string{"hello.txt"}))

	report, err := s.repo.Status()
	s.Require().NoError(err)
	s.Empty(report.Untracked)
	s.Contains(report.Staged, "hello.txt")
}

// Staging a nested file records only the leaf path, never its
// intermediate directories.
func (s *RepositorySuite) TestAddNestedFileRecordsOnlyLeaf() {
	s.Require().NoError(s.worktree.MkdirAll("a/b/c", 0o777))
	s.writeFile("a/b/c/hello.txt", "hi\n")
	s.Require().NoError(s.repo.Add([]string{"."}))

	report, err := s.repo.Status()
	s.Require().NoError(err)
	s.Contains(report.Staged, "a/b/c/hello.txt")
	s.NotContains(report.Staged, "a")
	s.NotContains(report.Staged, "a/b")
}

// A pathspec miss stages nothing and releases the index lock.
func (s *RepositorySuite) TestAddPathspecMissLeavesIndexUntouched() {
	s.writeFile("a.txt", "a\n")

	err := s.repo.Add([]string{"a.txt", "missing.txt"})
	s.Require().ErrorIs(err, repository.ErrPathspec)

	report, err := s.repo.Status()
	s.Require().NoError(err)
	s.Empty(report.Staged)
	s.Equal([]string{"a.txt"}, report.Untracked)
}

// Checking out a parent commit restores the working tree to that commit's
// content and leaves status clean.
func (s *RepositorySuite) TestCheckoutToParentRestoresContent() {
	s.writeFile("1.txt", "1")
	s.Require().NoError(s.worktree.MkdirAll("outer/inner", 0o777))
	s.writeFile("outer/2.txt", "2")
	s.writeFile("outer/inner/3.txt", "3")
	s.Require().NoError(s.repo.Add([]string{"."}))
	_, err := s.repo.Commit("first\n", s.identity(), time.Unix(1000, 0))
	s.Require().NoError(err)

	s.writeFile("1.txt", "changed")
	s.Require().NoError(s.repo.Add([]string{"1.txt"}))
	_, err = s.repo.Commit("second\n", s.identity(), time.Unix(1001, 0))
	s.Require().NoError(err)

	_, err = s.repo.Checkout("@^")
	s.Require().NoError(err)

	s.Equal("1", s.readFile("1.txt"))

	report, err := s.repo.Status()
	s.Require().NoError(err)
	s.True(report.IsClean())
}

// Checking out away from an unstaged local modification fails with a
// stale-file conflict and leaves the workspace, index and HEAD untouched.
func (s *RepositorySuite) TestCheckoutRefusesToDiscardLocalChanges() {
	s.writeFile("1.txt", "1")
	s.Require().NoError(s.repo.Add([]string{"1.txt"}))
	firstOID, err := s.repo.Commit("first\n", s.identity(), time.Unix(1000, 0))
	s.Require().NoError(err)

	s.writeFile("1.txt", "changed again")
	s.Require().NoError(s.repo.Add([]string{"1.txt"}))
	_, err = s.repo.Commit("second\n", s.identity(), time.Unix(1001, 0))
	s.Require().NoError(err)

	s.writeFile("1.txt", "conflict")

	_, err = s.repo.Checkout("@^")
	s.Require().Error(err)
	var conflictErr *migration.ConflictError
	s.Require().ErrorAs(err, &conflictErr)
	s.Contains(conflictErr.Groups[migration.StaleFile], "1.txt")

	s.Equal("conflict", s.readFile("1.txt"))

	head, _, err := s.repo.Refs().ReadHead()
	s.Require().NoError(err)
	s.NotEqual(firstOID, head)
}

// Branch creation, duplicate rejection, listing, and deletion.
func (s *RepositorySuite) TestBranchLifecycle() {
	s.writeFile("1.txt", "1")
	s.Require().NoError(s.repo.Add([]string{"1.txt"}))
	_, err := s.repo.Commit("first\n", s.identity(), time.Unix(1000, 0))
	s.Require().NoError(err)

	s.Require().NoError(s.repo.CreateBranch("topic", plumbing.ZeroHash))

	branches, err := s.repo.ListBranches()
	s.Require().NoError(err)
	s.Len(branches, 2)

	err = s.repo.CreateBranch("topic", plumbing.ZeroHash)
	s.Require().Error(err)

	_, err = s.repo.DeleteBranch("topic")
	s.Require().NoError(err)

	branches, err = s.repo.ListBranches()
	s.Require().NoError(err)
	s.Len(branches, 1)
}

// The executable bit survives a stage/commit/status round trip.
func (s *RepositorySuite) TestExecutableModeRoundTrips() {
	s.writeFile("run.sh", "#!/bin/sh\necho hi\n")
	s.Require().NoError(chmod(s.worktree, "run.sh", 0o755))
	s.Require().NoError(s.repo.Add([]string{"run.sh"}))
	_, err := s.repo.Commit("exec\n", s.identity(), time.Unix(1000, 0))
	s.Require().NoError(err)

	report, err := s.repo.Status()
	s.Require().NoError(err)
	s.True(report.IsClean())
}
