package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/repository"
)

var (
	logOneline  bool
	logAbbrev   bool
	logDecorate string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show commit history by walking first parents",
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

func init() {
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "one line per commit")
	logCmd.Flags().BoolVar(&logAbbrev, "abbrev-commit", false, "show abbreviated commit OIDs")
	logCmd.Flags().StringVar(&logDecorate, "decorate", "", "show ref names next to commits")
	logCmd.Flags().Lookup("decorate").NoOptDefVal = "short"
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	repo, err := openRepository()
	if err != nil {
		return err
	}

	head, ok, err := repo.Refs().ReadHead()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	entries, err := repo.Log(head)
	if err != nil {
		return err
	}

	decorations, err := decorationsByOID(repo)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range entries {
		printLogEntry(out, repo, e, decorations[e.Hash])
	}
	return nil
}

func decorationsByOID(repo *repository.Repository) (map[plumbing.Hash][]string, error) {
	refs, err := repo.ListBranches()
	if err != nil {
		return nil, err
	}
	current, err := repo.CurrentRef()
	if err != nil {
		return nil, err
	}

	out := make(map[plumbing.Hash][]string)
	for _, ref := range refs {
		name := ref.Name().Short()
		if ref.Name() == current {
			name = "HEAD -> " + name
			out[ref.Hash()] = append([]string{name}, out[ref.Hash()]...)
			continue
		}
		out[ref.Hash()] = append(out[ref.Hash()], name)
	}

	if current == plumbing.HEAD {
		if head, ok, err := repo.Refs().ReadHead(); err == nil && ok {
			out[head] = append([]string{"HEAD"}, out[head]...)
		}
	}
	return out, nil
}

func printLogEntry(w io.Writer, repo *repository.Repository, e repository.LogEntry, names []string) {
	oid := e.Hash.String()
	if logOneline || logAbbrev {
		oid = repo.Database().ShortOID(e.Hash)
	}

	decoration := ""
	if logDecorate != "" && len(names) > 0 {
		decoration = fmt.Sprintf(" (%s)", strings.Join(names, ", "))
	}

	if logOneline {
		fmt.Fprintf(w, "%s%s %s\n", oid, decoration, firstLine(e.Commit.Message))
		return
	}

	fmt.Fprintf(w, "commit %s%s\n", oid, decoration)
	fmt.Fprintf(w, "Author: %s <%s>\n", e.Commit.Author.Name, e.Commit.Author.Email)
	fmt.Fprintf(w, "Date:   %s\n\n", e.Commit.Author.When.Format("Mon Jan 2 15:04:05 2006 -0700"))
	fmt.Fprintf(w, "    %s\n\n", firstLine(e.Commit.Message))
}
