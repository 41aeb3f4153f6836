package plumbing

import "fmt"

// ObjectType identifies the kind of content a stored object holds. The
// values mirror the ones used in the object header line
// ("<type> <len>\0").
type ObjectType int8

const (
	// InvalidObject represents an invalid or unset object type.
	InvalidObject ObjectType = 0
	// CommitObject is a commit object.
	CommitObject ObjectType = 1
	// TreeObject is a tree object.
	TreeObject ObjectType = 2
	// BlobObject is a blob object.
	BlobObject ObjectType = 3
)

// String returns the header token used for this object type.
func (t ObjectType) String() string {
	switch t {
	case CommitObject:
		return "commit"
	case TreeObject:
		return "tree"
	case BlobObject:
		return "blob"
	default:
		return "invalid"
	}
}

// Bytes returns the byte representation of the header token.
func (t ObjectType) Bytes() []byte {
	return []byte(t.String())
}

// Valid reports whether t is one of commit, tree or blob.
func (t ObjectType) Valid() bool {
	return t == CommitObject || t == TreeObject || t == BlobObject
}

// ParseObjectType parses the header token written at the start of a stored
// object.
func ParseObjectType(value string) (ObjectType, error) {
	switch value {
	case "commit":
		return CommitObject, nil
	case "tree":
		return TreeObject, nil
	case "blob":
		return BlobObject, nil
	default:
		return InvalidObject, fmt.Errorf("plumbing: invalid object type %q", value)
	}
}
