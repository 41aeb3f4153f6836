package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/gitcore-go/gitcore/repository"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create an empty repository",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o777); err != nil {
		return err
	}

	gitDir := filepath.Join(abs, ".git")
	worktreeFS := osfs.New(abs)
	gitFS := osfs.New(gitDir)

	if _, err := repository.Init(worktreeFS, gitFS); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized empty gitcore repository in %s\n", gitDir)
	return nil
}
