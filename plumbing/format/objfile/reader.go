package objfile

import (
	"bufio"
	"compress/zlib"
	"fmt"
	"io"
	"strconv"

	stdhash "hash"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/hash"
)

// Reader inflates an object's framed bytes while hashing the decompressed
// form, so the caller can confirm it matches the OID it was requested by.
type Reader struct {
	zlib io.ReadCloser
	hash stdhash.Hash
	src  io.Reader // io.TeeReader(zlib, hash)

	typ  plumbing.ObjectType
	size int64
}

// NewReader opens the zlib stream and leaves the header unread; call
// Header before reading the body.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("objfile: %w", err)
	}

	h := hash.New()
	return &Reader{
		zlib: zr,
		hash: h,
		src:  io.TeeReader(zr, h),
	}, nil
}

// Header reads and parses the "<type> <len>\0" preamble.
func (r *Reader) Header() (plumbing.ObjectType, int64, error) {
	br := bufio.NewReader(r.src)

	typBytes, err := br.ReadString(' ')
	if err != nil {
		return plumbing.InvalidObject, 0, fmt.Errorf("objfile: reading type: %w", err)
	}
	typ, err := plumbing.ParseObjectType(typBytes[:len(typBytes)-1])
	if err != nil {
		return plumbing.InvalidObject, 0, err
	}

	sizeBytes, err := br.ReadString(0)
	if err != nil {
		return plumbing.InvalidObject, 0, fmt.Errorf("objfile: reading size: %w", err)
	}
	size, err := strconv.ParseInt(sizeBytes[:len(sizeBytes)-1], 10, 64)
	if err != nil {
		return plumbing.InvalidObject, 0, fmt.Errorf("objfile: invalid size: %w", err)
	}

	r.typ = typ
	r.size = size
	r.src = br // br already wraps r.src; further reads drain its buffer first
	return typ, size, nil
}

// Read streams the body, after Header has been called.
func (r *Reader) Read(p []byte) (int, error) {
	return r.src.Read(p)
}

// Hash returns the hash of everything read so far (header + body).
func (r *Reader) Hash() plumbing.Hash {
	return hash.FromBytes(r.hash.Sum(nil))
}

// Close releases the underlying zlib reader.
func (r *Reader) Close() error {
	return r.zlib.Close()
}
