// Command gitcore is the CLI surface over the gitcore core: init, add,
// commit, status, diff, branch, checkout and log against a single ".git"
// directory.
package main

import (
	"fmt"
	"os"

	"github.com/gitcore-go/gitcore/cmd/gitcore/commands"
)

func main() {
	err := commands.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "gitcore:", err)
	}
	os.Exit(commands.ExitCodeFor(err))
}
