package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gitcore-go/gitcore/diff"
	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/storage"
	"github.com/gitcore-go/gitcore/treediff"
)

var diffCached bool

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show unstaged changes, or staged ones with --cached",
	Args:  cobra.NoArgs,
	RunE:  runDiff,
}

func init() {
	diffCmd.Flags().BoolVar(&diffCached, "cached", false, "diff HEAD against the index instead of the index against the workspace")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	repo, err := openRepository()
	if err != nil {
		return err
	}

	d, err := repo.Diff(diffCached)
	if err != nil {
		return err
	}

	return printDiff(cmd.OutOrStdout(), repo.Database(), d)
}

func printDiff(w io.Writer, db *storage.Database, d *treediff.Diff) error {
	paths := append([]string(nil), d.Paths()...)
	sort.Strings(paths)

	for _, path := range paths {
		c, _ := d.Get(path)
		if err := printFileDiff(w, db, path, c); err != nil {
			return err
		}
	}
	return nil
}

func printFileDiff(w io.Writer, db *storage.Database, path string, c treediff.Change) error {
	oldContent, oldShort, err := diffSide(db, c.Old)
	if err != nil {
		return err
	}
	newContent, newShort, err := diffSide(db, c.New)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "diff --git a/%s b/%s\n", path, path)
	switch {
	case c.Old == nil:
		fmt.Fprintf(w, "new file mode %o\n", c.New.Mode)
	case c.New == nil:
		fmt.Fprintf(w, "deleted file mode %o\n", c.Old.Mode)
	case c.Old.Mode != c.New.Mode:
		fmt.Fprintf(w, "old mode %o\n", c.Old.Mode)
		fmt.Fprintf(w, "new mode %o\n", c.New.Mode)
	}
	fmt.Fprintf(w, "index %s..%s\n", oldShort, newShort)
	fmt.Fprintf(w, "--- %s\n", diffLabel("a/", path, c.Old))
	fmt.Fprintf(w, "+++ %s\n", diffLabel("b/", path, c.New))

	script := diff.Lines(oldContent, newContent)
	for _, h := range diff.Hunks(script, diff.DefaultContext) {
		fmt.Fprintln(w, h.Header())
		for _, e := range h.Edits {
			line := e.Line
			if len(line) == 0 || line[len(line)-1] != '\n' {
				line += "\n"
			}
			fmt.Fprintf(w, "%s%s", editPrefix(e.Type), line)
		}
	}
	return nil
}

func diffLabel(prefix, path string, e *treediff.Entry) string {
	if e == nil {
		return "/dev/null"
	}
	return prefix + path
}

func diffSide(db *storage.Database, e *treediff.Entry) (content, short string, err error) {
	if e == nil {
		return "", plumbing.ZeroHash.Short(6), nil
	}
	b, err := db.LoadBlob(e.Hash)
	if err != nil {
		return "", "", err
	}
	raw, err := b.Contents()
	if err != nil {
		return "", "", err
	}
	return string(raw), db.ShortOID(e.Hash), nil
}

func editPrefix(t diff.EditType) string {
	switch t {
	case diff.Ins:
		return "+"
	case diff.Del:
		return "-"
	default:
		return " "
	}
}
