package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gitcore-go/gitcore/status"
)

var statusPorcelain bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the working tree status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusPorcelain, "porcelain", false, "machine-readable output")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	repo, err := openRepository()
	if err != nil {
		return err
	}

	report, err := repo.Status()
	if err != nil {
		return err
	}

	if statusPorcelain {
		printStatusPorcelain(cmd, report)
	} else {
		printStatusLong(cmd, report)
	}
	return nil
}

func printStatusPorcelain(cmd *cobra.Command, r *status.Report) {
	out := cmd.OutOrStdout()
	for _, path := range statusPaths(r) {
		fmt.Fprintf(out, "%s%s %s\n", porcelainLetter(r.Staged[path]), porcelainLetter(r.Workspace[path]), path)
	}
	for _, path := range r.Untracked {
		fmt.Fprintf(out, "?? %s\n", path)
	}
}

func porcelainLetter(c status.ChangeType) string {
	switch c {
	case status.Added:
		return "A"
	case status.Modified:
		return "M"
	case status.Deleted:
		return "D"
	default:
		return " "
	}
}

func printStatusLong(cmd *cobra.Command, r *status.Report) {
	out := cmd.OutOrStdout()

	staged := pathsWithChange(r.Staged)
	unstaged := pathsWithChange(r.Workspace)

	if len(staged) > 0 {
		fmt.Fprintln(out, "Changes to be committed:")
		for _, p := range staged {
			fmt.Fprintf(out, "\t%s:   %s\n", r.Staged[p], p)
		}
		fmt.Fprintln(out)
	}

	if len(unstaged) > 0 {
		fmt.Fprintln(out, "Changes not staged for commit:")
		for _, p := range unstaged {
			fmt.Fprintf(out, "\t%s:   %s\n", r.Workspace[p], p)
		}
		fmt.Fprintln(out)
	}

	if len(r.Untracked) > 0 {
		fmt.Fprintln(out, "Untracked files:")
		for _, p := range r.Untracked {
			fmt.Fprintf(out, "\t%s\n", p)
		}
		fmt.Fprintln(out)
	}

	if r.IsClean() {
		fmt.Fprintln(out, "nothing to commit, working tree clean")
	}
}

func pathsWithChange(m map[string]status.ChangeType) []string {
	out := make([]string, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func statusPaths(r *status.Report) []string {
	seen := make(map[string]struct{})
	for p := range r.Staged {
		seen[p] = struct{}{}
	}
	for p := range r.Workspace {
		seen[p] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
