package workspace

import (
	"os"

	"github.com/gitcore-go/gitcore/plumbing/filemode"
	"github.com/gitcore-go/gitcore/plumbing/format/index"
)

// baseStat fills in the metadata every platform exposes through the
// standard os.FileInfo, leaving dev/ino/uid/gid/ctime for the
// platform-specific completion in statFromFileInfo.
func baseStat(info os.FileInfo) index.Stat {
	st := index.Stat{
		MTime:        info.ModTime().Unix(),
		MTimeNanosec: int64(info.ModTime().Nanosecond()),
		Size:         uint64(info.Size()),
	}
	if mode, err := filemode.NewFromOSFileMode(info.Mode()); err == nil {
		st.Mode = mode
	}
	return st
}
