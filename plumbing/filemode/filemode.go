// Package filemode implements the file modes a tree entry can carry,
// matching the octal encoding used by the on-disk tree format.
package filemode

import (
	"fmt"
	"os"
	"strconv"
)

// FileMode is the mode of a tree entry, stored as the octal mode used in
// the canonical tree object serialization.
type FileMode uint32

const (
	// Empty represents an absent or invalid mode.
	Empty FileMode = 0
	// Dir is a subtree entry (40000 in a tree entry, 0040000 from String).
	Dir FileMode = 0o40000
	// Regular is a non-executable file (100644).
	Regular FileMode = 0o100644
	// Deprecated is an older, no-longer-written regular file mode (100664).
	Deprecated FileMode = 0o100664
	// Executable is an executable file (100755).
	Executable FileMode = 0o100755
	// Symlink is a symbolic link (120000). Not produced by this
	// implementation's add path, but accepted when reading trees.
	Symlink FileMode = 0o120000
	// Submodule is a gitlink entry (160000). Accepted when reading trees;
	// never produced, since submodules are out of scope.
	Submodule FileMode = 0o160000
)

// New parses the textual octal representation of a mode, as found in tree
// object entries and in command output such as "git diff-tree".
func New(s string) (FileMode, error) {
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return Empty, fmt.Errorf("filemode: invalid mode %q: %w", s, err)
	}
	return FileMode(n), nil
}

// NewFromOSFileMode translates a Go os.FileMode, as returned by Stat, into
// the closest matching git FileMode.
func NewFromOSFileMode(m os.FileMode) (FileMode, error) {
	if m.IsDir() {
		return Dir, nil
	}

	if m&os.ModeSymlink != 0 {
		return Symlink, nil
	}

	switch {
	case m&os.ModeDevice != 0,
		m&os.ModeNamedPipe != 0,
		m&os.ModeSocket != 0,
		m&os.ModeCharDevice != 0:
		return Empty, fmt.Errorf("filemode: no equivalent mode for %s", m)
	case m&os.ModeTemporary != 0:
		return Empty, fmt.Errorf("filemode: no equivalent mode for temporary file %s", m)
	}

	if m&0o111 != 0 {
		return Executable, nil
	}
	return Regular, nil
}

// Bytes returns the little-endian 32-bit encoding used by the index entry
// format.
func (m FileMode) Bytes() []byte {
	return []byte{
		byte(m),
		byte(m >> 8),
		byte(m >> 16),
		byte(m >> 24),
	}
}

// String renders the mode the way tree and index dumps do: a zero-padded
// 7-digit octal number.
func (m FileMode) String() string {
	return fmt.Sprintf("%07o", uint32(m))
}

// IsMalformed reports whether m is not one of the modes this package
// recognizes.
func (m FileMode) IsMalformed() bool {
	switch m {
	case Dir, Regular, Deprecated, Executable, Symlink, Submodule:
		return false
	default:
		return true
	}
}

// IsRegular reports whether m identifies a plain (non-executable) file.
func (m FileMode) IsRegular() bool {
	return m == Regular || m == Deprecated
}

// IsFile reports whether m identifies any blob-backed entry (regular,
// executable or symlink).
func (m FileMode) IsFile() bool {
	switch m {
	case Regular, Deprecated, Executable, Symlink:
		return true
	default:
		return false
	}
}

// ToOSFileMode converts m back to an os.FileMode suitable for Chmod/Create.
func (m FileMode) ToOSFileMode() (os.FileMode, error) {
	switch m {
	case Dir:
		return os.ModePerm | os.ModeDir, nil
	case Regular, Deprecated:
		return 0o644, nil
	case Executable:
		return 0o755, nil
	case Symlink:
		return os.ModePerm | os.ModeSymlink, nil
	case Submodule:
		return os.ModePerm | os.ModeDir, nil
	default:
		return 0, fmt.Errorf("filemode: malformed mode %s", m)
	}
}
