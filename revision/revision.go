// Package revision resolves a revision expression to a single commit OID.
// An expression is a branch name, "HEAD", the "@" alias, a short or full
// OID, or one of those followed by any number of "^" (first parent) and
// "~<n>" (nth-generation first-parent ancestor) suffixes.
package revision

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/storage"
)

// ErrBadRevision is returned for an expression that is malformed, names
// nothing, or whose <name> fails the branch-naming predicate.
var ErrBadRevision = errors.New("revision: bad revision")

// ErrAmbiguous is returned when a short OID prefix matches more than one
// object. The error's message lists every candidate.
var ErrAmbiguous = errors.New("revision: ambiguous argument")

// Resolver resolves revision expressions against one repository's object
// database and reference store.
type Resolver struct {
	db   *storage.Database
	refs *storage.RefStorage
}

// New builds a Resolver over db and refs.
func New(db *storage.Database, refs *storage.RefStorage) *Resolver {
	return &Resolver{db: db, refs: refs}
}

type opKind int

const (
	opParent opKind = iota
	opAncestor
)

type op struct {
	kind opKind
	n    int
}

var ancestorSuffix = regexp.MustCompile(`~(\d+)$`)

// parse splits expr into its base <name> and the chain of "^"/"~<n>"
// suffixes, peeled from the right. The returned ops are in peel order
// (outermost, i.e. last-applied, first); Resolve applies them in reverse.
func parse(expr string) (string, []op, error) {
	s := expr
	var ops []op

	for {
		if strings.HasSuffix(s, "^") {
			ops = append(ops, op{kind: opParent})
			s = s[:len(s)-1]
			continue
		}
		if m := ancestorSuffix.FindStringSubmatchIndex(s); m != nil {
			n, err := strconv.Atoi(s[m[2]:m[3]])
			if err != nil {
				return "", nil, fmt.Errorf("%w: %q", ErrBadRevision, expr)
			}
			ops = append(ops, op{kind: opAncestor, n: n})
			s = s[:m[0]]
			continue
		}
		break
	}

	if s == "" {
		return "", nil, fmt.Errorf("%w: %q", ErrBadRevision, expr)
	}
	return s, ops, nil
}

// Resolve parses and resolves expr, verifying that the final OID names a
// commit.
func (r *Resolver) Resolve(expr string) (plumbing.Hash, error) {
	name, ops, err := parse(expr)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	h, err := r.resolveName(name)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	for i := len(ops) - 1; i >= 0; i-- {
		h, err = r.applyOp(expr, h, ops[i])
		if err != nil {
			return plumbing.ZeroHash, err
		}
	}

	if _, err := r.db.LoadCommit(h); err != nil {
		return plumbing.ZeroHash, err
	}
	return h, nil
}

// resolveName resolves a single <name> token: the "@" alias, a ref name
// (bare or fully-qualified), or a short/full OID.
func (r *Resolver) resolveName(name string) (plumbing.Hash, error) {
	if name == "@" {
		name = plumbing.HEAD.String()
	}

	if name != plumbing.HEAD.String() && !storage.ValidBranchName(name) {
		return plumbing.ZeroHash, fmt.Errorf("%w: %q", ErrBadRevision, name)
	}

	h, ok, err := r.refs.ResolveName(name)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if ok {
		return h, nil
	}

	if looksLikeHex(name) && len(name) >= 4 {
		matches, err := r.db.PrefixMatch(name)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		switch len(matches) {
		case 0:
			return plumbing.ZeroHash, fmt.Errorf("%w: %q", ErrBadRevision, name)
		case 1:
			return matches[0], nil
		default:
			return plumbing.ZeroHash, r.ambiguousError(name, matches)
		}
	}

	return plumbing.ZeroHash, fmt.Errorf("%w: %q", ErrBadRevision, name)
}

func (r *Resolver) applyOp(expr string, h plumbing.Hash, o op) (plumbing.Hash, error) {
	n := 1
	if o.kind == opAncestor {
		n = o.n
	}

	for i := 0; i < n; i++ {
		c, err := r.db.LoadCommit(h)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if len(c.ParentHashes) == 0 {
			return plumbing.ZeroHash, fmt.Errorf("%w: %q has no parent", ErrBadRevision, expr)
		}
		h = c.ParentHashes[0]
	}
	return h, nil
}

func (r *Resolver) ambiguousError(prefix string, matches []plumbing.Hash) error {
	var b strings.Builder
	fmt.Fprintf(&b, "short SHA1 %s is ambiguous\n", prefix)
	b.WriteString("The candidates are:\n")
	for _, h := range matches {
		typ, err := r.db.ObjectType(h)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "  %s %s", r.db.ShortOID(h), typ)
		if typ == plumbing.CommitObject {
			if c, err := r.db.LoadCommit(h); err == nil {
				fmt.Fprintf(&b, " %s - %s", c.Author.When.Format("2006-01-02"), firstLine(c.Message))
			}
		}
		b.WriteString("\n")
	}
	return fmt.Errorf("%w: %s", ErrAmbiguous, b.String())
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func looksLikeHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
