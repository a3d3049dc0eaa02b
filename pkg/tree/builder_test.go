package tree_test

import (
	"errors"
	"testing"

	"github.com/dechst-go/dechst/pkg/id"
	obj "github.com/dechst-go/dechst/pkg/obj/tree"
	"github.com/dechst-go/dechst/pkg/tree"
)

func fileNode(name string) obj.Node {
	return obj.Node{Name: name, Kind: obj.FileKind()}
}

func dirNode(name string) obj.Node {
	return obj.Node{Name: name, Kind: obj.DirKind()}
}

func recordingWriter(t *testing.T) (tree.WriteFunc, func() map[string][]string) {
	t.Helper()
	written := make(map[string][]string)
	next := 0
	write := func(path []string, tr obj.Tree) (id.Id, error) {
		next++
		var names []string
		for _, n := range tr.Nodes {
			names = append(names, n.Name)
		}
		key := "/" + joinPath(path)
		written[key] = names
		out := id.Id{}
		out[0] = byte(next)
		return out, nil
	}
	return write, func() map[string][]string { return written }
}

func joinPath(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "/"
		}
		out += p
	}
	return out
}

func TestFinalizeSimpleTree(t *testing.T) {
	b := tree.NewBuilder()
	b.Add(nil, dirNode("a"))
	b.Add([]string{"a"}, fileNode("f.txt"))

	write, results := recordingWriter(t)
	rootID, err := b.Finalize(write)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if rootID.IsZero() {
		t.Fatal("Finalize() returned zero root id")
	}
	got := results()
	if names := got["/"]; len(names) != 1 || names[0] != "a" {
		t.Fatalf("root tree nodes = %v, want [a]", names)
	}
	if names := got["/a"]; len(names) != 1 || names[0] != "f.txt" {
		t.Fatalf("a/ tree nodes = %v, want [f.txt]", names)
	}
}

func TestFinalizeSetsSubtreeID(t *testing.T) {
	b := tree.NewBuilder()
	b.Add(nil, dirNode("a"))
	b.Add([]string{"a"}, fileNode("f.txt"))

	var rootNodes []obj.Node
	write := func(path []string, tr obj.Tree) (id.Id, error) {
		if len(path) == 0 {
			rootNodes = tr.Nodes
		}
		var out id.Id
		out[0] = 1
		return out, nil
	}
	if _, err := b.Finalize(write); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if rootNodes[0].Kind.Subtree == nil {
		t.Fatal("directory node's Subtree was not set")
	}
}

func TestFinalizePreservesOrder(t *testing.T) {
	b := tree.NewBuilder()
	b.Add(nil, fileNode("z"))
	b.Add(nil, fileNode("a"))
	b.Add(nil, fileNode("m"))

	write, results := recordingWriter(t)
	if _, err := b.Finalize(write); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	got := results()["/"]
	want := []string{"z", "a", "m"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestFinalizeDuplicateNode(t *testing.T) {
	b := tree.NewBuilder()
	b.Add([]string{"a"}, dirNode("b"))
	b.Add([]string{"a"}, fileNode("b"))

	write, _ := recordingWriter(t)
	_, err := b.Finalize(write)
	var dup *tree.DuplicateNodeError
	if !errors.As(err, &dup) {
		t.Fatalf("Finalize() err = %v, want *DuplicateNodeError", err)
	}
	if dup.Name != "b" {
		t.Fatalf("DuplicateNodeError.Name = %q, want %q", dup.Name, "b")
	}
}

func TestFinalizeUnresolvedBranch(t *testing.T) {
	b := tree.NewBuilder()
	b.Add([]string{"a"}, fileNode("f.txt"))
	// "a" itself was never added as a directory node.

	write, _ := recordingWriter(t)
	_, err := b.Finalize(write)
	var unresolved *tree.UnresolvedBranchError
	if !errors.As(err, &unresolved) {
		t.Fatalf("Finalize() err = %v, want *UnresolvedBranchError", err)
	}
	if len(unresolved.Path) != 1 || unresolved.Path[0] != "a" {
		t.Fatalf("UnresolvedBranchError.Path = %v, want [a]", unresolved.Path)
	}
}

func TestFinalizeRemovingDirEntryYieldsUnresolvedBranch(t *testing.T) {
	b := tree.NewBuilder()
	b.Add(nil, dirNode("a"))
	b.Add([]string{"a"}, dirNode("b"))
	b.Add([]string{"a", "b"}, fileNode("f.txt"))

	write, _ := recordingWriter(t)
	if _, err := b.Finalize(write); err != nil {
		t.Fatalf("Finalize() with every directory supplied: %v", err)
	}

	// Now omit the "a/b" directory entry itself.
	b2 := tree.NewBuilder()
	b2.Add(nil, dirNode("a"))
	b2.Add([]string{"a", "b"}, fileNode("f.txt"))

	write2, _ := recordingWriter(t)
	_, err := b2.Finalize(write2)
	var unresolved *tree.UnresolvedBranchError
	if !errors.As(err, &unresolved) {
		t.Fatalf("Finalize() err = %v, want *UnresolvedBranchError", err)
	}
}
