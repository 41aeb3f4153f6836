// Package tree assembles the nested tree object graph that the flat,
// path-sorted index entries describe, and walks it postorder so every
// subtree can be persisted before its parent.
package tree

import (
	"sort"
	"strings"

	"github.com/gitcore-go/gitcore/plumbing"
	"github.com/gitcore-go/gitcore/plumbing/filemode"
	"github.com/gitcore-go/gitcore/plumbing/format/index"
	"github.com/gitcore-go/gitcore/plumbing/object"
)

// node is one level of the tree being assembled: a blob leaf carries mode
// and hash and no children; a directory carries children, and its tree
// hash is computed by Builder.Store without being kept on the node.
type node struct {
	children map[string]*node
	mode     filemode.FileMode
	hash     plumbing.Hash
}

func newDirNode() *node {
	return &node{children: make(map[string]*node)}
}

func (n *node) isDir() bool { return n.children != nil }

// Builder holds the nested tree Build assembled, ready to be persisted.
type Builder struct {
	root *node
}

// Build sorts entries by path and assembles the nested tree they describe:
// walking each path's components creates or reuses the intermediate
// directory nodes, placing the leaf under its final parent.
func Build(entries []*index.Entry) *Builder {
	sorted := make([]*index.Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	root := newDirNode()
	for _, e := range sorted {
		parts := strings.Split(e.Path, "/")
		cur := root
		for _, part := range parts[:len(parts)-1] {
			next, ok := cur.children[part]
			if !ok {
				next = newDirNode()
				cur.children[part] = next
			}
			cur = next
		}
		cur.children[parts[len(parts)-1]] = &node{mode: e.Mode, hash: e.Hash}
	}

	return &Builder{root: root}
}

// Store persists every subtree postorder (a directory's children are
// stored before the directory itself) via store, and returns the root
// tree's OID. An index with no entries still yields a valid empty tree.
func (b *Builder) Store(store func(*object.Tree) (plumbing.Hash, error)) (plumbing.Hash, error) {
	return storeNode(b.root, store)
}

func storeNode(n *node, store func(*object.Tree) (plumbing.Hash, error)) (plumbing.Hash, error) {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]object.TreeEntry, 0, len(names))
	for _, name := range names {
		child := n.children[name]
		if child.isDir() {
			h, err := storeNode(child, store)
			if err != nil {
				return plumbing.ZeroHash, err
			}
			entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: h})
			continue
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: child.mode, Hash: child.hash})
	}

	return store(object.NewTree(entries))
}
