//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !windows

package workspace

import (
	"os"

	"github.com/gitcore-go/gitcore/plumbing/format/index"
)

// statFromFileInfo is the fallback for platforms without a recognized
// Stat_t shape: dev/ino/uid/gid/ctime stay zero. Zero ctimes compare equal,
// so the status engine's timestamp fast path rests on mtime alone.
func statFromFileInfo(info os.FileInfo) index.Stat {
	return baseStat(info)
}
