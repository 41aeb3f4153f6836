// Package storage implements two of the persistence layers the core
// depends on: the content-addressed object database and the reference
// storage. The on-disk staging index lives in plumbing/format/index.
package storage

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/format/objfile"
	"github.com/gitcore-go/gitcore/plumbing/hash"
	"github.com/gitcore-go/gitcore/plumbing/object"
	"github.com/gitcore-go/gitcore/storage/dotgit"
)

// Database is the content-addressed store of blobs, trees and commits. A
// load is memoized for the life of the process: once an object is read
// and parsed, later loads of the same OID are served from memory.
type Database struct {
	dg *dotgit.DotGit

	mu    sync.Mutex
	cache map[plumbing.Hash]any
}

// NewDatabase wraps dg as an object database.
func NewDatabase(dg *dotgit.DotGit) *Database {
	return &Database{dg: dg, cache: make(map[plumbing.Hash]any)}
}

// StoreBlob persists b, returning its OID. A no-op if the object is
// already stored.
func (db *Database) StoreBlob(b *object.Blob) (plumbing.Hash, error) {
	content, err := io.ReadAll(b.Reader())
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return db.store(plumbing.BlobObject, content)
}

// StoreTree persists t, returning its OID.
func (db *Database) StoreTree(t *object.Tree) (plumbing.Hash, error) {
	var buf bytes.Buffer
	if err := t.Encode(&buf); err != nil {
		return plumbing.ZeroHash, err
	}
	return db.store(plumbing.TreeObject, buf.Bytes())
}

// StoreCommit persists c, returning its OID.
func (db *Database) StoreCommit(c *object.Commit) (plumbing.Hash, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf); err != nil {
		return plumbing.ZeroHash, err
	}
	return db.store(plumbing.CommitObject, buf.Bytes())
}

func (db *Database) store(t plumbing.ObjectType, content []byte) (plumbing.Hash, error) {
	h := hashOf(t, content)
	if db.dg.HasObject(h) {
		return h, nil
	}

	w, err := db.dg.NewObjectWriter()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("storage: staging object: %w", err)
	}

	if err := w.WriteHeader(t, int64(len(content))); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, err
	}
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, err
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("storage: committing object: %w", err)
	}

	return h, nil
}

// HashObject computes the OID content would be stored under as an object
// of type t, without writing anything. Callers use this to learn a
// candidate blob's hash before deciding whether it needs staging (Add) or
// whether a workspace file still matches what the index has staged
// (status's content-hash fallback).
func HashObject(t plumbing.ObjectType, content []byte) plumbing.Hash {
	return hashOf(t, content)
}

func hashOf(t plumbing.ObjectType, content []byte) plumbing.Hash {
	h := hash.New()
	fmt.Fprintf(h, "%s %d\x00", t, len(content))
	h.Write(content)
	return hash.FromBytes(h.Sum(nil))
}

// LoadBlob reads and parses the blob stored at h.
func (db *Database) LoadBlob(h plumbing.Hash) (*object.Blob, error) {
	typ, body, err := db.load(h)
	if err != nil {
		return nil, err
	}
	if typ != plumbing.BlobObject {
		return nil, fmt.Errorf("storage: object %s is a %s, not a blob", h, typ)
	}
	return object.DecodeBlob(h, body), nil
}

// LoadTree reads and parses the tree stored at h.
func (db *Database) LoadTree(h plumbing.Hash) (*object.Tree, error) {
	typ, body, err := db.load(h)
	if err != nil {
		return nil, err
	}
	if typ != plumbing.TreeObject {
		return nil, fmt.Errorf("storage: object %s is a %s, not a tree", h, typ)
	}
	return object.DecodeTree(h, body)
}

// LoadCommit reads and parses the commit stored at h.
func (db *Database) LoadCommit(h plumbing.Hash) (*object.Commit, error) {
	typ, body, err := db.load(h)
	if err != nil {
		return nil, err
	}
	if typ != plumbing.CommitObject {
		return nil, fmt.Errorf("storage: object %s is a %s, not a commit", h, typ)
	}
	return object.DecodeCommit(h, body)
}

// ObjectType returns the type of the object stored at h, without fully
// decoding it.
func (db *Database) ObjectType(h plumbing.Hash) (plumbing.ObjectType, error) {
	typ, _, err := db.load(h)
	return typ, err
}

type decoded struct {
	typ  plumbing.ObjectType
	body []byte
}

func (db *Database) load(h plumbing.Hash) (plumbing.ObjectType, []byte, error) {
	db.mu.Lock()
	if cached, ok := db.cache[h]; ok {
		db.mu.Unlock()
		d := cached.(decoded)
		return d.typ, d.body, nil
	}
	db.mu.Unlock()

	f, err := db.dg.OpenObject(h)
	if err != nil {
		return plumbing.InvalidObject, nil, err
	}
	defer f.Close()

	r, err := objfile.NewReader(f)
	if err != nil {
		return plumbing.InvalidObject, nil, fmt.Errorf("storage: reading object %s: %w", h, err)
	}
	defer r.Close()

	typ, _, err := r.Header()
	if err != nil {
		return plumbing.InvalidObject, nil, fmt.Errorf("storage: reading object %s: %w", h, err)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return plumbing.InvalidObject, nil, fmt.Errorf("storage: reading object %s: %w", h, err)
	}

	db.mu.Lock()
	db.cache[h] = decoded{typ: typ, body: body}
	db.mu.Unlock()

	return typ, body, nil
}

// ShortOID returns the display-width (6 hex char) prefix of h.
func (db *Database) ShortOID(h plumbing.Hash) string {
	return h.Short(6)
}

// PrefixMatch resolves every stored OID starting with prefix, which should
// be at least 4 hex characters.
func (db *Database) PrefixMatch(prefix string) ([]plumbing.Hash, error) {
	return db.dg.PrefixMatch(prefix)
}
