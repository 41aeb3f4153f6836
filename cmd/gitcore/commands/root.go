package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/gitcore-go/gitcore/migration"
	"github.com/gitcore-go/gitcore/repository"
	"github.com/gitcore-go/gitcore/revision"
)

var rootCmd = &cobra.Command{
	Use:           "gitcore",
	Short:         "A minimal, content-addressed version control system",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI, returning whatever error the matched command's
// RunE produced.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCodeFor maps a command error to a process exit code: 0 on success,
// 1 when a pathspec or revision argument matched nothing or a checkout
// would lose local changes, 128 for anything else (lock held, I/O error,
// invalid object).
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, repository.ErrPathspec),
		errors.Is(err, revision.ErrBadRevision),
		errors.Is(err, revision.ErrAmbiguous),
		errors.Is(err, migration.ErrConflict):
		return 1
	default:
		return 128
	}
}
