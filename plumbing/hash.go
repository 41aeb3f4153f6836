package plumbing

import "github.com/gitcore-go/gitcore/plumbing/hash"

// Hash is the object identifier used throughout the object store and index:
// a 20-byte collision-detecting SHA-1 digest.
type Hash = hash.Hash

// ZeroHash is the Hash with all bytes zero. It never identifies a stored
// object, and marks the absence of a parent commit or a deleted tree entry.
var ZeroHash = hash.ZeroHash

// NewHash parses a 40-character hexadecimal string into a Hash. Malformed
// input yields the zero Hash; callers that need to distinguish a
// genuinely-absent hash from a parse error should use hash.FromHex instead.
func NewHash(s string) Hash {
	return hash.NewFromHex(s)
}
