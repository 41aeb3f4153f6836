package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout <rev>",
	Short: "Switch the working tree, index and HEAD to a revision",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckout,
}

func init() {
	rootCmd.AddCommand(checkoutCmd)
}

func runCheckout(cmd *cobra.Command, args []string) error {
	repo, err := openRepository()
	if err != nil {
		return err
	}

	rev := args[0]
	result, err := repo.Checkout(rev)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.Detached {
		fmt.Fprintf(out, "Previous HEAD was %s\n", repo.Database().ShortOID(result.PreviousOID))
	}

	branch, err := repo.CurrentRef()
	if err != nil {
		return err
	}
	if branch.IsBranch() {
		fmt.Fprintf(out, "Switched to branch '%s'\n", branch.Short())
	} else {
		if !result.Detached {
			fmt.Fprintf(out, "Note: checking out '%s'.\n\nYou are in 'detached HEAD' state.\n\n", rev)
		}
		fmt.Fprintf(out, "HEAD is now at %s\n", repo.Database().ShortOID(result.NewOID))
	}
	return nil
}
