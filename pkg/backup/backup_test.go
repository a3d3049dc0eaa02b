package backup_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dechst-go/dechst/pkg/backend/local"
	"github.com/dechst-go/dechst/pkg/backup"
	"github.com/dechst-go/dechst/pkg/codec/cbor"
	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/obj"
	objtree "github.com/dechst-go/dechst/pkg/obj/tree"
	"github.com/dechst-go/dechst/pkg/repo"
	"github.com/dechst-go/dechst/pkg/source/fssource"
)

func newLockedTestRepo(t *testing.T) *repo.LockedRepo {
	t.Helper()
	repoPath := t.TempDir()
	if _, _, err := repo.Init(local.New(repoPath), obj.DefaultProcessOptions(), nil); err != nil {
		t.Fatalf("Init: %v", err)
	}
	r, err := repo.Open(local.New(repoPath))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	it, err := r.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if !it.Next() {
		t.Fatal("repository has no keys")
	}
	dr, err := r.TryUnencrypted(it.Id())
	if err != nil {
		t.Fatalf("TryUnencrypted: %v", err)
	}
	lr, err := dr.Lock(repo.WriteLock)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	return lr
}

// TestBackupRoundTrip ingests a small directory tree and confirms the
// resulting Snapshot's root Tree, when read back and walked, reproduces the
// same file names and directory structure.
func TestBackupRoundTrip(t *testing.T) {
	srcRoot := t.TempDir()
	if err := os.Mkdir(filepath.Join(srcRoot, "sub"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(srcRoot, "top.txt"), []byte("top level file"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(srcRoot, "sub", "nested.txt"), []byte("nested file content"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	lr := newLockedTestRepo(t)
	src, err := fssource.New(srcRoot)
	if err != nil {
		t.Fatalf("fssource.New: %v", err)
	}

	result, err := backup.Backup(lr, src, srcRoot, backup.Options{Name: "test", Tags: []string{"t1"}})
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}

	snap, err := lr.SnapshotRead(result.SnapshotID)
	if err != nil {
		t.Fatalf("SnapshotRead: %v", err)
	}
	if snap.Name != "test" {
		t.Fatalf("Snapshot.Name = %q, want %q", snap.Name, "test")
	}
	if snap.Tree != result.Snapshot.Tree {
		t.Fatalf("SnapshotRead returned a different root tree than Backup: %v != %v", snap.Tree, result.Snapshot.Tree)
	}

	rootTree := readTree(t, lr, snap.Tree)
	names := nodeNames(rootTree)
	if !names["top.txt"] || !names["sub"] {
		t.Fatalf("root tree nodes = %v, want top.txt and sub", names)
	}

	var subNode objtree.Node
	for _, n := range rootTree.Nodes {
		if n.Name == "sub" {
			subNode = n
		}
	}
	if subNode.Kind.Subtree == nil {
		t.Fatal("sub directory node has no Subtree id")
	}
	subTree := readTree(t, lr, *subNode.Kind.Subtree)
	if !nodeNames(subTree)["nested.txt"] {
		t.Fatalf("sub tree nodes = %v, want nested.txt", nodeNames(subTree))
	}

	// Re-running Backup over identical content must reproduce the same root
	// tree id.
	result2, err := backup.Backup(lr, src, srcRoot, backup.Options{})
	if err != nil {
		t.Fatalf("second Backup: %v", err)
	}
	if result2.Snapshot.Tree != result.Snapshot.Tree {
		t.Fatalf("re-backing up identical content produced a different root tree: %v != %v",
			result2.Snapshot.Tree, result.Snapshot.Tree)
	}
}

// readTree locates the blob stored under treeID by scanning every live
// Index's PackEntry list, reads the enclosing Pack, slices out the blob,
// unprocesses it, and decodes it as a Tree: the mechanical reverse walk a
// restore would perform.
func readTree(t *testing.T, lr *repo.LockedRepo, treeID id.Id) objtree.Tree {
	t.Helper()

	it, err := lr.Indices()
	if err != nil {
		t.Fatalf("Indices: %v", err)
	}
	for it.Next() {
		idx, err := lr.IndexRead(it.Id())
		if err != nil {
			t.Fatalf("IndexRead: %v", err)
		}
		for _, pe := range idx.Packs {
			for _, be := range pe.Blobs {
				if be.ID != treeID {
					continue
				}
				raw, err := lr.PackReadAll(pe.ID)
				if err != nil {
					t.Fatalf("PackReadAll: %v", err)
				}
				blobRegion, _, err := obj.DisassemblePack(raw)
				if err != nil {
					t.Fatalf("DisassemblePack: %v", err)
				}
				processed, err := be.BlobBytes(blobRegion)
				if err != nil {
					t.Fatalf("BlobBytes: %v", err)
				}
				plain, err := lr.Pipeline().Unprocess(processed)
				if err != nil {
					t.Fatalf("Unprocess: %v", err)
				}
				var tr objtree.Tree
				if err := cbor.Unmarshal(plain, &tr); err != nil {
					t.Fatalf("unmarshal tree: %v", err)
				}
				return tr
			}
		}
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Indices iteration: %v", err)
	}
	t.Fatalf("tree blob %s not found in any index", treeID)
	return objtree.Tree{}
}

func nodeNames(t objtree.Tree) map[string]bool {
	out := make(map[string]bool, len(t.Nodes))
	for _, n := range t.Nodes {
		out[n.Name] = true
	}
	return out
}
