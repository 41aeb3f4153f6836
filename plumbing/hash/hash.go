// Package hash implements the object identifier used throughout gitcore: a
// 20-byte SHA-1 digest of an object's canonical serialization.
package hash

import (
	"encoding/hex"
	stdhash "hash"
	"sort"
	"strings"

	"github.com/pjbgf/sha1cd"
)

// Size is the length in bytes of a Hash.
const Size = 20

// HexSize is the length of a Hash's hexadecimal representation.
const HexSize = Size * 2

// Hash is the SHA-1 object identifier (OID) of a stored blob, tree or
// commit. The zero Hash never identifies a real object.
type Hash [Size]byte

// ZeroHash is the Hash with all bytes zero.
var ZeroHash Hash

// New returns a stdhash.Hash implementation for computing object OIDs.
// It uses a collision-detecting SHA-1 implementation so a maliciously
// crafted collision is surfaced as an error instead of silently producing
// an ambiguous OID.
func New() stdhash.Hash {
	return sha1cd.New()
}

// FromBytes builds a Hash from a raw 20-byte digest. It panics if b is not
// exactly Size bytes, which indicates a programming error in the caller.
func FromBytes(b []byte) Hash {
	var h Hash
	if len(b) != Size {
		panic("hash: FromBytes requires exactly 20 bytes")
	}
	copy(h[:], b)
	return h
}

// FromHex parses a 40-character hexadecimal string into a Hash. Invalid
// input yields the zero Hash and ok=false.
func FromHex(s string) (h Hash, ok bool) {
	if len(s) != HexSize {
		return h, false
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, false
	}
	copy(h[:], b)
	return h, true
}

// NewFromHex is a convenience wrapper around FromHex that discards parse
// errors and returns the zero Hash on invalid input.
func NewFromHex(s string) Hash {
	h, _ := FromHex(s)
	return h
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// String returns the lowercase hexadecimal representation of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first n hex characters of h. The default display
// width is 6.
func (h Hash) Short(n int) string {
	s := h.String()
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// Bytes returns the raw 20-byte digest.
func (h Hash) Bytes() []byte {
	return h[:]
}

// Compare returns -1, 0 or 1 depending on the ordering of h and other,
// consistent with bytes.Compare.
func (h Hash) Compare(other Hash) int {
	return strings.Compare(string(h[:]), string(other[:]))
}

// Sort sorts a slice of Hash values in increasing order.
func Sort(hs []Hash) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].Compare(hs[j]) < 0 })
}

// IsValidHex reports whether s could plausibly be a full hash.
func IsValidHex(s string) bool {
	if len(s) != HexSize {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
