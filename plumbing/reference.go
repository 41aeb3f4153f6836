package plumbing

import (
	"errors"
	"fmt"
	"strings"
)

const (
	refPrefix       = "refs/"
	refHeadPrefix   = refPrefix + "heads/"
	refTagPrefix    = refPrefix + "tags/"
	refRemotePrefix = refPrefix + "remotes/"
	refNotePrefix   = refPrefix + "notes/"
	symrefPrefix    = "ref: "
)

// ErrInvalidReferenceName is returned by ReferenceName.Validate when a name
// does not satisfy the on-disk ref naming rules.
var ErrInvalidReferenceName = errors.New("invalid reference name")

// ReferenceType distinguishes a reference that stores a hash directly from
// one that points at another reference.
type ReferenceType int8

const (
	// InvalidReference is the zero value, held by a Reference built without
	// one of the New* constructors.
	InvalidReference ReferenceType = 0
	// HashReference stores an object hash directly.
	HashReference ReferenceType = 1
	// SymbolicReference stores the name of another reference.
	SymbolicReference ReferenceType = 2
)

// String returns a human-readable label for t.
func (t ReferenceType) String() string {
	switch t {
	case HashReference:
		return "hash-reference"
	case SymbolicReference:
		return "symbolic-reference"
	default:
		return "invalid-reference"
	}
}

// ReferenceName is the full path of a reference, such as
// "refs/heads/master" or "HEAD".
type ReferenceName string

// HEAD is the name of the reference that tracks the current branch or
// commit.
const HEAD ReferenceName = "HEAD"

// String returns n unchanged, as a plain string.
func (n ReferenceName) String() string {
	return string(n)
}

// Short returns n with its "refs/<category>/" prefix stripped, the way
// branch and tag names are displayed. Names with no recognized prefix (HEAD,
// or anything outside refs/) are returned unchanged.
func (n ReferenceName) Short() string {
	s := string(n)
	res := s
	for _, prefix := range []string{
		refHeadPrefix,
		refTagPrefix,
		refRemotePrefix,
		refPrefix,
	} {
		if strings.HasPrefix(s, prefix) {
			res = strings.TrimPrefix(s, prefix)
			break
		}
	}
	return res
}

// IsBranch reports whether n lives under refs/heads/.
func (n ReferenceName) IsBranch() bool {
	return strings.HasPrefix(string(n), refHeadPrefix)
}

// IsNote reports whether n lives under refs/notes/.
func (n ReferenceName) IsNote() bool {
	return strings.HasPrefix(string(n), refNotePrefix)
}

// IsRemote reports whether n lives under refs/remotes/.
func (n ReferenceName) IsRemote() bool {
	return strings.HasPrefix(string(n), refRemotePrefix)
}

// IsTag reports whether n lives under refs/tags/.
func (n ReferenceName) IsTag() bool {
	return strings.HasPrefix(string(n), refTagPrefix)
}

// Validate checks n against the on-disk ref naming rules (a relaxed form of
// git's check-ref-format): no empty path component, no component starting
// with "." (or, for the final component of a branch or tag name, with "-"
// either), no ".lock" suffix, no "..", no control characters or
// " ~^:?*[\" anywhere, and no "@{" sequence.
func (n ReferenceName) Validate() error {
	s := string(n)

	if s == HEAD.String() {
		return nil
	}

	parts := strings.Split(s, "/")
	if len(parts) < 2 {
		return fmt.Errorf("%w: %q", ErrInvalidReferenceName, s)
	}

	isBranchOrTag := strings.HasPrefix(s, refHeadPrefix) || strings.HasPrefix(s, refTagPrefix)

	for i, part := range parts {
		if part == "" {
			return fmt.Errorf("%w: %q", ErrInvalidReferenceName, s)
		}

		if part == "@" {
			return fmt.Errorf("%w: %q", ErrInvalidReferenceName, s)
		}

		if strings.HasSuffix(part, ".lock") {
			return fmt.Errorf("%w: %q", ErrInvalidReferenceName, s)
		}

		disallowedFirst := "."
		if isBranchOrTag && i == len(parts)-1 {
			disallowedFirst = ".-"
		}
		if strings.ContainsAny(part[:1], disallowedFirst) {
			return fmt.Errorf("%w: %q", ErrInvalidReferenceName, s)
		}

		if strings.HasSuffix(part, ".") {
			return fmt.Errorf("%w: %q", ErrInvalidReferenceName, s)
		}

		if strings.Contains(part, "..") {
			return fmt.Errorf("%w: %q", ErrInvalidReferenceName, s)
		}

		if strings.Contains(part, "@{") {
			return fmt.Errorf("%w: %q", ErrInvalidReferenceName, s)
		}

		if strings.ContainsAny(part, " ~^:?*[\\") {
			return fmt.Errorf("%w: %q", ErrInvalidReferenceName, s)
		}

		for _, r := range part {
			if r < 0x20 || r == 0x7f {
				return fmt.Errorf("%w: %q", ErrInvalidReferenceName, s)
			}
		}
	}

	return nil
}

// NewBranchReferenceName builds the reference name of the local branch s.
func NewBranchReferenceName(s string) ReferenceName {
	return ReferenceName(refHeadPrefix + s)
}

// NewNoteReferenceName builds the reference name of the note s.
func NewNoteReferenceName(s string) ReferenceName {
	return ReferenceName(refNotePrefix + s)
}

// NewRemoteReferenceName builds the reference name of branch s on remote.
func NewRemoteReferenceName(remote, s string) ReferenceName {
	return ReferenceName(refRemotePrefix + remote + "/" + s)
}

// NewRemoteHEADReferenceName builds the reference name of remote's HEAD.
func NewRemoteHEADReferenceName(remote string) ReferenceName {
	return ReferenceName(refRemotePrefix + remote + "/HEAD")
}

// NewTagReferenceName builds the reference name of tag s.
func NewTagReferenceName(s string) ReferenceName {
	return ReferenceName(refTagPrefix + s)
}

// Reference is either a hash reference, storing an object hash directly, or
// a symbolic reference, storing the name of another reference (as used by
// HEAD to track the current branch).
type Reference struct {
	t      ReferenceType
	n      ReferenceName
	h      Hash
	target ReferenceName
}

// NewReferenceFromStrings builds a Reference from its on-disk textual form:
// target is either a 40-character hash or a "ref: <name>" line.
func NewReferenceFromStrings(name, target string) *Reference {
	r := &Reference{n: ReferenceName(name)}

	if strings.HasPrefix(target, symrefPrefix) {
		r.t = SymbolicReference
		r.target = ReferenceName(strings.TrimPrefix(target, symrefPrefix))
		return r
	}

	r.t = HashReference
	r.h = NewHash(target)
	return r
}

// NewSymbolicReference builds a symbolic reference named n pointing at
// target.
func NewSymbolicReference(n, target ReferenceName) *Reference {
	return &Reference{
		t:      SymbolicReference,
		n:      n,
		target: target,
	}
}

// NewHashReference builds a reference named n pointing directly at h.
func NewHashReference(n ReferenceName, h Hash) *Reference {
	return &Reference{
		t: HashReference,
		n: n,
		h: h,
	}
}

// Type reports whether r is a hash or symbolic reference.
func (r *Reference) Type() ReferenceType {
	return r.t
}

// Name returns the name of r.
func (r *Reference) Name() ReferenceName {
	return r.n
}

// Hash returns the hash r points at. Only meaningful when Type() is
// HashReference.
func (r *Reference) Hash() Hash {
	return r.h
}

// Target returns the reference name r points at. Only meaningful when
// Type() is SymbolicReference.
func (r *Reference) Target() ReferenceName {
	return r.target
}

// String renders r the way it would appear in "git show-ref" output.
func (r *Reference) String() string {
	switch r.Type() {
	case HashReference:
		return fmt.Sprintf("%s %s", r.Hash(), r.Name())
	case SymbolicReference:
		return fmt.Sprintf("%s %s%s", r.Name(), symrefPrefix, r.Target())
	default:
		return fmt.Sprintf("%s %s", InvalidReference, r.Name())
	}
}
