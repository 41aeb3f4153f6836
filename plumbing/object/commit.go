package object

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gitcore-go/gitcore/plumbing"
)

// Commit is a snapshot object: a pointer to a root tree, an optional
// parent, author/committer identities, and a free-form message.
type Commit struct {
	Hash         plumbing.Hash
	TreeHash     plumbing.Hash
	ParentHashes []plumbing.Hash
	Author       Signature
	Committer    Signature
	Message      string
}

// Type returns CommitObject.
func (c *Commit) Type() plumbing.ObjectType { return plumbing.CommitObject }

// NumParents returns the number of parent commits, 0 for a root commit.
func (c *Commit) NumParents() int {
	return len(c.ParentHashes)
}

// Encode writes the canonical commit body: "tree" header, zero or more
// "parent" headers, "author", "committer", a blank line, then the message
// verbatim.
func (c *Commit) Encode(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "tree %s\n", c.TreeHash); err != nil {
		return err
	}
	for _, p := range c.ParentHashes {
		if _, err := fmt.Fprintf(w, "parent %s\n", p); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "author %s\n", c.Author.Encode()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "committer %s\n", c.Committer.Encode()); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	_, err := io.WriteString(w, c.Message)
	return err
}

// DecodeCommit parses a commit body previously produced by Encode.
func DecodeCommit(h plumbing.Hash, body []byte) (*Commit, error) {
	c := &Commit{Hash: h}

	r := bufio.NewReader(bytes.NewReader(body))
	for {
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return nil, fmt.Errorf("object: commit %s: unexpected end of headers", h)
		}
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			break
		}

		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("object: commit %s: malformed header %q", h, line)
		}
		key, value := line[:sp], line[sp+1:]

		switch key {
		case "tree":
			c.TreeHash = plumbing.NewHash(value)
		case "parent":
			c.ParentHashes = append(c.ParentHashes, plumbing.NewHash(value))
		case "author":
			c.Author.Decode([]byte(value))
		case "committer":
			c.Committer.Decode([]byte(value))
		}

		if err == io.EOF {
			break
		}
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("object: commit %s: %w", h, err)
	}
	c.Message = string(rest)

	return c, nil
}
