//go:build darwin || freebsd || netbsd || openbsd

package workspace

import (
	"os"
	"syscall"

	"github.com/gitcore-go/gitcore/plumbing/format/index"
)

// statFromFileInfo extracts the full POSIX metadata the stat cache
// compares; BSD-family Stat_t exposes ctime as Ctimespec rather than
// Linux's Ctim.
func statFromFileInfo(info os.FileInfo) index.Stat {
	st := baseStat(info)

	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return st
	}

	st.Dev = uint64(sys.Dev)
	st.Ino = uint64(sys.Ino)
	st.UID = sys.Uid
	st.GID = sys.Gid
	st.CTime = int64(sys.Ctimespec.Sec)
	st.CTimeNanosec = int64(sys.Ctimespec.Nsec)
	return st
}
