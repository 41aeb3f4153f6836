// Package objfile implements the on-disk framing shared by every stored
// object: a "<type> <len>\0" header followed by the object's body, the
// whole thing passed through zlib.
package objfile

import (
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	stdhash "hash"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/hash"
)

// ErrOverflow is returned when more bytes are written than the size given
// to WriteHeader promised.
var ErrOverflow = errors.New("objfile: declared data length exceeded")

// ErrNegativeSize is returned when WriteHeader is given a negative size.
var ErrNegativeSize = errors.New("objfile: negative object size")

// Writer deflates an object's framed bytes while hashing the uncompressed
// form, so the caller learns the OID the content will be stored under.
type Writer struct {
	zlib io.WriteCloser
	hash stdhash.Hash
	dest io.Writer // io.MultiWriter(zlib, hash), set once the header is written

	closed  bool
	pending int64 // bytes still expected after WriteHeader
	written int64
}

// NewWriter wraps w, ready to accept a header and body.
func NewWriter(w io.Writer) *Writer {
	return &Writer{zlib: zlib.NewWriter(w)}
}

// WriteHeader writes the "<type> <len>\0" preamble. It must be called
// exactly once, before any call to Write.
func (w *Writer) WriteHeader(t plumbing.ObjectType, size int64) error {
	if !t.Valid() {
		return plumbing.ErrInvalidType
	}
	if size < 0 {
		return ErrNegativeSize
	}

	w.hash = hash.New()
	w.dest = io.MultiWriter(w.zlib, w.hash)

	header := fmt.Sprintf("%s %d\x00", t, size)
	if _, err := io.WriteString(w.dest, header); err != nil {
		return err
	}

	w.pending = size
	return nil
}

// Write streams body bytes. Writing more than the declared size returns
// ErrOverflow, with the return value capped at the number of bytes that fit.
func (w *Writer) Write(p []byte) (int, error) {
	if int64(len(p)) > w.pending {
		n, err := w.dest.Write(p[:w.pending])
		w.pending -= int64(n)
		w.written += int64(n)
		if err != nil {
			return n, err
		}
		return n, ErrOverflow
	}

	n, err := w.dest.Write(p)
	w.pending -= int64(n)
	w.written += int64(n)
	return n, err
}

// Hash returns the hash of everything written so far (header + body).
func (w *Writer) Hash() plumbing.Hash {
	return hash.FromBytes(w.hash.Sum(nil))
}

// Size returns the number of body bytes written.
func (w *Writer) Size() int64 {
	return w.written
}

// Close flushes the zlib stream. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.zlib.Close()
}
