package plumbing

import "errors"

// ErrInvalidType is returned when an object-store operation is asked to
// write or parse an ObjectType outside {commit, tree, blob}.
var ErrInvalidType = errors.New("plumbing: invalid object type")

// ErrObjectNotFound is returned by the object store when no object exists
// under the requested hash.
var ErrObjectNotFound = errors.New("plumbing: object not found")
