package fssource

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dechst-go/dechst/pkg/obj/tree"
)

func TestIterAndNodeOverDirectoryTree(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "top.txt"), []byte("top"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "nested.txt"), []byte("nested"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	it, err := s.Iter(nil)
	if err != nil {
		t.Fatalf("Iter(nil): %v", err)
	}
	var names []string
	var subItem Item
	for it.Next() {
		item := it.Item().(Item)
		node, err := s.Node(item)
		if err != nil {
			t.Fatalf("Node: %v", err)
		}
		names = append(names, node.Name)
		if node.Kind.Kind == tree.KindDirectory {
			subItem = item
		}
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Iter err: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("top-level names = %v, want 2 entries", names)
	}
	if !subItem.CanDescend() {
		t.Fatal("directory item does not report CanDescend")
	}

	subIt, err := s.Iter(subItem)
	if err != nil {
		t.Fatalf("Iter(sub): %v", err)
	}
	if !subIt.Next() {
		t.Fatal("expected one entry under sub/")
	}
	nestedItem := subIt.Item().(Item)
	nestedNode, err := s.Node(nestedItem)
	if err != nil {
		t.Fatalf("Node(nested): %v", err)
	}
	if nestedNode.Name != "nested.txt" || nestedNode.Kind.Kind != tree.KindFile {
		t.Fatalf("nested node = %+v, want file named nested.txt", nestedNode)
	}

	rc, err := s.Read(nestedItem)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "nested" {
		t.Fatalf("Read contents = %q, want %q", got, "nested")
	}
}

func TestNodeCapturesSymlinkTarget(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "real.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Symlink("real.txt", filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	s, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	it, err := s.Iter(nil)
	if err != nil {
		t.Fatalf("Iter: %v", err)
	}
	var found bool
	for it.Next() {
		item := it.Item().(Item)
		node, err := s.Node(item)
		if err != nil {
			t.Fatalf("Node: %v", err)
		}
		if node.Name != "link.txt" {
			continue
		}
		found = true
		if node.Kind.Kind != tree.KindSymlink {
			t.Fatalf("link.txt kind = %v, want symlink", node.Kind.Kind)
		}
		if node.Kind.Target != "real.txt" {
			t.Fatalf("link.txt target = %q, want %q", node.Kind.Target, "real.txt")
		}
		if item.CanDescend() {
			t.Fatal("symlink item reports CanDescend, want false")
		}
	}
	if !found {
		t.Fatal("link.txt not found in iteration")
	}
}

func TestNewRejectsNonDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := New(file); err == nil {
		t.Fatal("New() over a file succeeded, want error")
	}
}
