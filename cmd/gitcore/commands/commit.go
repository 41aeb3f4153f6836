package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitcore-go/gitcore/repository"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Record changes staged in the index",
	Args:  cobra.NoArgs,
	RunE:  runCommit,
}

func init() {
	rootCmd.AddCommand(commitCmd)
}

func runCommit(cmd *cobra.Command, args []string) error {
	who, err := repository.IdentityFromEnv()
	if err != nil {
		return err
	}

	message, err := readCommitMessage(cmd.InOrStdin())
	if err != nil {
		return err
	}

	repo, err := openRepository()
	if err != nil {
		return err
	}

	h, err := repo.Commit(message, who, time.Now())
	if err != nil {
		return err
	}

	root, err := repo.CurrentRef()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", root.Short(), repo.Database().ShortOID(h), firstLine(message))
	return nil
}

func readCommitMessage(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	msg := strings.TrimRight(string(b), "\n")
	if msg == "" {
		return "", fmt.Errorf("gitcore: aborting commit due to empty commit message")
	}
	return msg + "\n", nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
