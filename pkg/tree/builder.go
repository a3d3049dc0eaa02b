// Package tree implements two-phase tree construction: a flat stream of
// (path, node) additions is accumulated into a hierarchy of
// Leaf/Branch/UnresolvedBranch entries, then finalized depth-first into one
// pkg/obj/tree.Tree object per directory.
package tree

import (
	"fmt"
	"strings"

	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/obj/tree"
)

type state int

const (
	stateLeaf state = iota
	stateBranch
	stateUnresolvedBranch
)

// entry is one directory slot: either a fully-known Leaf or Branch node, or
// an UnresolvedBranch placeholder created on demand while walking a path
// whose enclosing directory has not yet been supplied.
type entry struct {
	name     string
	state    state
	node     tree.Node
	children []*entry
}

func (e *entry) find(name string) *entry {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Builder accumulates (path, node) additions and finalizes them into a
// hierarchy of Tree objects. The zero value is not usable; use NewBuilder.
type Builder struct {
	root *entry
}

// NewBuilder returns an empty Builder rooted at the ingestion source's top
// level.
func NewBuilder() *Builder {
	return &Builder{root: &entry{state: stateBranch}}
}

// Add inserts node as a child of the directory at path (a sequence of
// segment names from the root, not including node's own name, which is
// node.Name). Any directory on path that has not yet been added itself gets
// an UnresolvedBranch placeholder. Add never fails: name collisions and
// leftover UnresolvedBranch placeholders are detected only at Finalize.
func (b *Builder) Add(path []string, node tree.Node) {
	cur := b.root
	for _, seg := range path {
		next := cur.find(seg)
		if next == nil {
			next = &entry{name: seg, state: stateUnresolvedBranch}
			cur.children = append(cur.children, next)
		}
		cur = next
	}

	existing := cur.find(node.Name)
	if existing != nil && existing.state == stateUnresolvedBranch && node.Kind.Kind == tree.KindDirectory {
		existing.node = node
		existing.state = stateBranch
		return
	}

	st := stateLeaf
	if node.Kind.Kind == tree.KindDirectory {
		st = stateBranch
	}
	cur.children = append(cur.children, &entry{name: node.Name, state: st, node: node})
}

// DuplicateNodeError reports two nodes added with the same name under the
// same parent path.
type DuplicateNodeError struct {
	Path []string
	Name string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("tree: duplicate node %q under %q", e.Name, strings.Join(e.Path, "/"))
}

// UnresolvedBranchError reports a directory whose contents were added but
// whose own entry was never supplied. Path is the fully built-up path from
// the walk, including the missing directory's own name.
type UnresolvedBranchError struct {
	Path []string
}

func (e *UnresolvedBranchError) Error() string {
	return fmt.Sprintf("tree: unresolved branch %q", strings.Join(e.Path, "/"))
}

// WriteFunc persists one directory's finalized Tree and returns the id it
// was stored under, so Finalize can record it as the parent node's Subtree.
// path is the directory being written (the root directory's path is empty).
type WriteFunc func(path []string, t tree.Tree) (id.Id, error)

// Finalize walks the builder depth-first, detects DuplicateNodeError and
// UnresolvedBranchError, and calls write once per directory (children
// before parents) so each directory's Node.Kind.Subtree can be set to the
// id its subtree was stored under. It returns the id the root directory's
// Tree was stored under. Finalize never reorders siblings: each directory's
// Tree.Nodes preserves exactly the order Add was called in.
func (b *Builder) Finalize(write WriteFunc) (id.Id, error) {
	// Duplicates are checked over the whole tree first, before any
	// unresolved-branch check: a duplicate inside a directory whose own
	// entry is also missing reports as DuplicateNode, not UnresolvedBranch.
	if err := checkDuplicates(b.root, nil); err != nil {
		return id.Id{}, err
	}
	return finalizeEntry(b.root, nil, write)
}

func checkDuplicates(e *entry, path []string) error {
	seen := make(map[string]int, len(e.children))
	for _, c := range e.children {
		seen[c.name]++
	}
	for _, c := range e.children {
		if seen[c.name] > 1 {
			return &DuplicateNodeError{Path: path, Name: c.name}
		}
	}
	for _, c := range e.children {
		if len(c.children) == 0 {
			continue
		}
		if err := checkDuplicates(c, appendPath(path, c.name)); err != nil {
			return err
		}
	}
	return nil
}

func finalizeEntry(e *entry, path []string, write WriteFunc) (id.Id, error) {
	nodes := make([]tree.Node, 0, len(e.children))
	for _, c := range e.children {
		if c.state == stateUnresolvedBranch {
			return id.Id{}, &UnresolvedBranchError{Path: appendPath(path, c.name)}
		}
		if c.state == stateBranch {
			childPath := appendPath(path, c.name)
			subID, err := finalizeEntry(c, childPath, write)
			if err != nil {
				return id.Id{}, err
			}
			sub := subID
			c.node.Kind.Subtree = &sub
		}
		nodes = append(nodes, c.node)
	}

	treeID, err := write(path, tree.Tree{Nodes: nodes})
	if err != nil {
		return id.Id{}, fmt.Errorf("tree: write directory %q: %w", strings.Join(path, "/"), err)
	}
	return treeID, nil
}

func appendPath(path []string, seg string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}
