// Package object implements the three stored object kinds (blob, tree and
// commit) including their canonical serialization and parsing.
package object

import (
	"bytes"
	"io"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/hash"
)

// Blob is an opaque sequence of bytes: the content of a single tracked
// file, with no knowledge of its path or mode.
type Blob struct {
	Hash plumbing.Hash
	Size int64

	r io.Reader
}

// NewBlob wraps raw content as a Blob, without computing its hash.
func NewBlob(content []byte) *Blob {
	return &Blob{Size: int64(len(content)), r: bytes.NewReader(content)}
}

// Type returns BlobObject.
func (b *Blob) Type() plumbing.ObjectType { return plumbing.BlobObject }

// Reader returns a reader over the blob's content. It may only be read
// once.
func (b *Blob) Reader() io.Reader { return b.r }

// Contents reads the entirety of the blob into memory.
func (b *Blob) Contents() ([]byte, error) {
	return io.ReadAll(b.r)
}

// Encode writes the blob's content verbatim; the "blob <len>\0" framing is
// added by the object-store writer, not here, since it is shared across all
// three object kinds.
func (b *Blob) Encode(w io.Writer) error {
	_, err := io.Copy(w, b.r)
	return err
}

// DecodeBlob builds a Blob from its decoded body (the framing already
// stripped) and the hash it was stored under.
func DecodeBlob(h hash.Hash, body []byte) *Blob {
	return &Blob{Hash: h, Size: int64(len(body)), r: bytes.NewReader(body)}
}
