//go:build !windows

package dotgit

import "github.com/go-git/go-billy/v5"

// fixPermissions marks a freshly stored object read-only, since objects
// are write-once and never mutated after this. Best effort: filesystems
// that don't support chmod are left alone.
func fixPermissions(fs billy.Filesystem, path string) {
	if chmodFS, ok := fs.(billy.Change); ok {
		_ = chmodFS.Chmod(path, 0o444)
	}
}
