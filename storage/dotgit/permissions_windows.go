//go:build windows

package dotgit

import "github.com/go-git/go-billy/v5"

// fixPermissions is a no-op on Windows, matching git: its
// ACL model doesn't map onto the POSIX read-only bit the way other
// platforms do.
func fixPermissions(fs billy.Filesystem, path string) {}
