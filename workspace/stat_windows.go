//go:build windows

package workspace

import (
	"os"

	"github.com/gitcore-go/gitcore/plumbing/format/index"
)

// statFromFileInfo extracts the metadata the stat cache compares. Windows has
// no POSIX dev/ino/uid/gid and no separate ctime; those fields stay zero,
// matching git's own behavior on this platform.
func statFromFileInfo(info os.FileInfo) index.Stat {
	return baseStat(info)
}
