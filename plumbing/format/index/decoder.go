package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	stdhash "hash"

	"github.com/gitcore-go/gitcore/plumbing/filemode"
	"github.com/gitcore-go/gitcore/plumbing/hash"
)

// Decoder reads the binary on-disk index format, verifying the trailing
// checksum against everything read before it.
type Decoder struct {
	r   *bufio.Reader
	sum stdhash.Hash
	src io.Reader
}

// NewDecoder returns a Decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	sum := hash.New()
	br := bufio.NewReader(r)
	return &Decoder{r: br, sum: sum, src: io.TeeReader(br, sum)}
}

// Decode reads a full index from the stream, returning ErrUnsupportedVersion
// for anything but version 2 and ErrChecksumMismatch if the trailing SHA-1
// does not match the hash of the preceding bytes.
func (d *Decoder) Decode() (*Index, error) {
	var sig [4]byte
	if _, err := io.ReadFull(d.src, sig[:]); err != nil {
		return nil, fmt.Errorf("index: reading signature: %w", err)
	}
	if sig != signature {
		return nil, fmt.Errorf("index: invalid signature %q", sig)
	}

	ver, err := d.readUint32()
	if err != nil {
		return nil, err
	}
	if ver != version {
		return nil, ErrUnsupportedVersion
	}

	count, err := d.readUint32()
	if err != nil {
		return nil, err
	}

	idx := New()
	for i := uint32(0); i < count; i++ {
		entry, err := d.decodeEntry()
		if err != nil {
			return nil, err
		}
		idx.entries.Put(entry.Path, entry)
	}

	sum := d.sum.Sum(nil)
	var trailer [hash.Size]byte
	if _, err := io.ReadFull(d.r, trailer[:]); err != nil {
		return nil, fmt.Errorf("index: reading checksum: %w", err)
	}
	for i := range sum {
		if sum[i] != trailer[i] {
			return nil, ErrChecksumMismatch
		}
	}

	return idx, nil
}

func (d *Decoder) decodeEntry() (*Entry, error) {
	fields := make([]uint32, 10)
	for i := range fields {
		v, err := d.readUint32()
		if err != nil {
			return nil, fmt.Errorf("index: reading entry: %w", err)
		}
		fields[i] = v
	}

	var oid hash.Hash
	if _, err := io.ReadFull(d.src, oid[:]); err != nil {
		return nil, fmt.Errorf("index: reading entry hash: %w", err)
	}

	if _, err := d.readUint16(); err != nil {
		return nil, fmt.Errorf("index: reading entry flags: %w", err)
	}

	name, err := d.readNULTerminated()
	if err != nil {
		return nil, fmt.Errorf("index: reading entry path: %w", err)
	}
	if err := validatePath(name); err != nil {
		return nil, err
	}

	// readNULTerminated already consumed the path's terminator, which is
	// the first of the padding NULs the encoder wrote.
	consumed := entryHeaderSize + len(name) + 1
	pad := (8 - (consumed % 8)) % 8
	if pad > 0 {
		if _, err := io.CopyN(io.Discard, d.src, int64(pad)); err != nil {
			return nil, fmt.Errorf("index: skipping entry padding: %w", err)
		}
	}

	return &Entry{
		CTime: int64(fields[0]), CTimeNanosec: int64(fields[1]),
		MTime: int64(fields[2]), MTimeNanosec: int64(fields[3]),
		Dev: uint64(fields[4]), Ino: uint64(fields[5]),
		Mode: filemode.FileMode(fields[6]),
		UID:  fields[7], GID: fields[8],
		Size: uint64(fields[9]),
		Hash: oid,
		Path: name,
	}, nil
}

// readNULTerminated reads the entry's path, consuming the terminator. The
// on-disk format pads each entry to an 8-byte boundary after the NUL;
// reading through the hashing TeeReader one byte at a time finds the
// terminator without the manual block bookkeeping.
func (d *Decoder) readNULTerminated() (string, error) {
	var out []byte
	buf := make([]byte, 1)
	for {
		if _, err := io.ReadFull(d.src, buf); err != nil {
			return "", err
		}
		if buf[0] == 0 {
			return string(out), nil
		}
		out = append(out, buf[0])
	}
}

func (d *Decoder) readUint32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(d.src, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func (d *Decoder) readUint16() (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(d.src, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}
