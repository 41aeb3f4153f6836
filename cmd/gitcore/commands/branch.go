package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/repository"
)

var (
	branchDelete      bool
	branchForceDelete bool
	branchVerbose     bool
)

var branchCmd = &cobra.Command{
	Use:   "branch [<name> [<start-point>]]",
	Short: "List, create, or delete branches",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runBranch,
}

func init() {
	branchCmd.Flags().BoolVarP(&branchDelete, "delete", "d", false, "delete a branch")
	branchCmd.Flags().BoolVarP(&branchForceDelete, "force-delete", "D", false, "force-delete a branch")
	branchCmd.Flags().BoolVarP(&branchVerbose, "verbose", "v", false, "show the commit each branch points at")
	rootCmd.AddCommand(branchCmd)
}

func runBranch(cmd *cobra.Command, args []string) error {
	repo, err := openRepository()
	if err != nil {
		return err
	}

	if branchDelete || branchForceDelete {
		if len(args) != 1 {
			return fmt.Errorf("gitcore: branch name required")
		}
		h, err := repo.DeleteBranch(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted branch %s (was %s).\n", args[0], repo.Database().ShortOID(h))
		return nil
	}

	if len(args) >= 1 {
		var start plumbing.Hash
		if len(args) == 2 {
			start, err = repo.Resolver().Resolve(args[1])
			if err != nil {
				return err
			}
		}
		return repo.CreateBranch(args[0], start)
	}

	return listBranches(cmd, repo)
}

func listBranches(cmd *cobra.Command, repo *repository.Repository) error {
	refs, err := repo.ListBranches()
	if err != nil {
		return err
	}
	current, err := repo.CurrentRef()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, ref := range refs {
		marker := "  "
		if ref.Name() == current {
			marker = "* "
		}
		if branchVerbose {
			title := ""
			if c, err := repo.Database().LoadCommit(ref.Hash()); err == nil {
				title = " " + firstLine(c.Message)
			}
			fmt.Fprintf(out, "%s%s %s%s\n", marker, ref.Name().Short(), repo.Database().ShortOID(ref.Hash()), title)
		} else {
			fmt.Fprintf(out, "%s%s\n", marker, ref.Name().Short())
		}
	}
	return nil
}
