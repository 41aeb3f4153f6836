package commands

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/gitcore-go/gitcore/repository"
)

// ErrNotARepository is returned when no ".git" directory is found walking
// up from the current directory.
var ErrNotARepository = errors.New("not a gitcore repository (or any parent up to mount point)")

func openRepository() (*repository.Repository, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := findRepoRoot(cwd)
	if err != nil {
		return nil, err
	}

	worktreeFS := osfs.New(root)
	gitFS := osfs.New(filepath.Join(root, ".git"))
	return repository.Open(worktreeFS, gitFS), nil
}

func findRepoRoot(start string) (string, error) {
	dir := start
	for {
		info, err := os.Stat(filepath.Join(dir, ".git"))
		if err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotARepository
		}
		dir = parent
	}
}
