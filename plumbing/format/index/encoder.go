package index

import (
	"encoding/binary"
	"io"

	stdhash "hash"

	"github.com/gitcore-go/gitcore/plumbing/hash"
)

// signature is the four-byte magic that opens every index file.
var signature = [4]byte{'D', 'I', 'R', 'C'}

// version is the only on-disk index version this package writes or reads.
const version = 2

// entryHeaderSize is the length in bytes of an entry's fixed-width fields,
// before its NUL-terminated path: ten uint32s (ctime, ctime nanoseconds,
// mtime, mtime nanoseconds, dev, ino, mode, uid, gid, size), a 20-byte
// hash and a uint16 flags word.
const entryHeaderSize = 10*4 + hash.Size + 2

// Encoder writes an Index to its binary on-disk form, trailed with a
// streaming SHA-1 of everything written before it.
type Encoder struct {
	w    io.Writer
	sum  stdhash.Hash
	dest io.Writer
}

// NewEncoder returns an Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	sum := hash.New()
	return &Encoder{w: w, sum: sum, dest: io.MultiWriter(w, sum)}
}

// Encode writes idx's header, its entries sorted by path, and the trailing
// checksum.
func (e *Encoder) Encode(idx *Index) error {
	return e.encode(idx.Entries())
}

func (e *Encoder) encode(entries []*Entry) error {
	if _, err := e.dest.Write(signature[:]); err != nil {
		return err
	}
	if err := e.writeUint32(version); err != nil {
		return err
	}
	if err := e.writeUint32(uint32(len(entries))); err != nil {
		return err
	}

	for _, entry := range entries {
		if err := e.encodeEntry(entry); err != nil {
			return err
		}
	}

	_, err := e.w.Write(e.sum.Sum(nil))
	return err
}

func (e *Encoder) encodeEntry(entry *Entry) error {
	fields := []uint32{
		uint32(entry.CTime), uint32(entry.CTimeNanosec),
		uint32(entry.MTime), uint32(entry.MTimeNanosec),
		uint32(entry.Dev), uint32(entry.Ino),
		uint32(entry.Mode),
		entry.UID, entry.GID,
		uint32(entry.Size),
	}
	for _, f := range fields {
		if err := e.writeUint32(f); err != nil {
			return err
		}
	}

	if _, err := e.dest.Write(entry.Hash.Bytes()); err != nil {
		return err
	}

	if err := e.writeUint16(entry.flags()); err != nil {
		return err
	}

	if _, err := io.WriteString(e.dest, entry.Path); err != nil {
		return err
	}

	consumed := entryHeaderSize + len(entry.Path)
	nulCount := 8 - (consumed % 8)
	_, err := e.dest.Write(make([]byte, nulCount))
	return err
}

func (e *Encoder) writeUint32(v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := e.dest.Write(buf[:])
	return err
}

func (e *Encoder) writeUint16(v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := e.dest.Write(buf[:])
	return err
}
