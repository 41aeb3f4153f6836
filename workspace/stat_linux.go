//go:build linux

package workspace

import (
	"os"
	"syscall"

	"github.com/gitcore-go/gitcore/plumbing/format/index"
)

// statFromFileInfo extracts the full POSIX metadata the stat cache
// compares, including ctime, which Linux's Stat_t exposes as Ctim.
func statFromFileInfo(info os.FileInfo) index.Stat {
	st := baseStat(info)

	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return st
	}

	st.Dev = uint64(sys.Dev)
	st.Ino = sys.Ino
	st.UID = sys.Uid
	st.GID = sys.Gid
	st.CTime = int64(sys.Ctim.Sec)
	st.CTimeNanosec = int64(sys.Ctim.Nsec)
	return st
}
