package local

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dechst-go/dechst/pkg/backend"
	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/obj"
)

func newTestBackend(t *testing.T) *Local {
	t.Helper()
	l := New(t.TempDir())
	if err := l.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return l
}

func TestCreateAndVerify(t *testing.T) {
	l := newTestBackend(t)
	if err := l.WriteAll(obj.KindConfig, id.Zero, []byte("config bytes")); err != nil {
		t.Fatalf("WriteAll config: %v", err)
	}
	if err := l.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	l := newTestBackend(t)
	objID, err := id.Random()
	if err != nil {
		t.Fatalf("id.Random: %v", err)
	}
	want := []byte("pack blob contents")

	if err := l.WriteAll(obj.KindPack, objID, want); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if err := l.Exists(obj.KindPack, objID); err != nil {
		t.Fatalf("Exists: %v", err)
	}
	got, err := l.ReadAll(obj.KindPack, objID)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatal("ReadAll did not reproduce written bytes")
	}

	buf := make([]byte, 4)
	n, err := l.ReadAt(obj.KindPack, objID, 5, buf)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if n != 4 || !bytes.Equal(buf, want[5:9]) {
		t.Fatalf("ReadAt = %q, want %q", buf, want[5:9])
	}
}

func TestMissingObjectIsErrNotFound(t *testing.T) {
	l := newTestBackend(t)
	objID, err := id.Random()
	if err != nil {
		t.Fatalf("id.Random: %v", err)
	}
	if _, err := l.ReadAll(obj.KindSnapshot, objID); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("ReadAll() = %v, want ErrNotFound", err)
	}
	if err := l.Exists(obj.KindSnapshot, objID); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("Exists() = %v, want ErrNotFound", err)
	}
}

func TestIterListsWrittenObjects(t *testing.T) {
	l := newTestBackend(t)
	var written []id.Id
	for i := 0; i < 3; i++ {
		objID, err := id.Random()
		if err != nil {
			t.Fatalf("id.Random: %v", err)
		}
		if err := l.WriteAll(obj.KindSnapshot, objID, []byte("snap")); err != nil {
			t.Fatalf("WriteAll: %v", err)
		}
		written = append(written, objID)
	}

	it, err := l.Iter(obj.KindSnapshot)
	if err != nil {
		t.Fatalf("Iter: %v", err)
	}
	seen := map[id.Id]bool{}
	for it.Next() {
		seen[it.Id()] = true
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	if len(seen) != len(written) {
		t.Fatalf("iterated %d ids, want %d", len(seen), len(written))
	}
	for _, w := range written {
		if !seen[w] {
			t.Fatalf("Iter did not yield written id %s", w)
		}
	}
}

func TestPackLayoutShardsByPrefix(t *testing.T) {
	l := newTestBackend(t)
	objID, err := id.Random()
	if err != nil {
		t.Fatalf("id.Random: %v", err)
	}
	if err := l.WriteAll(obj.KindPack, objID, []byte("x")); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	hex := objID.String()
	want := filepath.Join(l.root, "packs", hex[:2], hex)
	if l.resolve(obj.KindPack, objID) != want {
		t.Fatalf("resolve() = %q, want %q", l.resolve(obj.KindPack, objID), want)
	}
}

func TestParseSelectsLayoutVersion(t *testing.T) {
	if l := Parse("/some/path"); l.version != 1 || l.root != "/some/path" {
		t.Fatalf("Parse(plain path) = version %d root %q, want version 1", l.version, l.root)
	}
	if l := Parse("v2:///some/path"); l.version != 2 || l.root != "/some/path" {
		t.Fatalf("Parse(v2 url) = version %d root %q, want version 2", l.version, l.root)
	}
}

func TestV2LayoutShardsEveryDirectoryKind(t *testing.T) {
	l := NewV2(t.TempDir())
	if err := l.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	objID, err := id.Random()
	if err != nil {
		t.Fatalf("id.Random: %v", err)
	}
	hex := objID.String()
	want := filepath.Join(l.root, "snapshots", hex[:2], hex)
	if got := l.resolve(obj.KindSnapshot, objID); got != want {
		t.Fatalf("v2 resolve() = %q, want %q", got, want)
	}

	if err := l.WriteAll(obj.KindSnapshot, objID, []byte("snap")); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	it, err := l.Iter(obj.KindSnapshot)
	if err != nil {
		t.Fatalf("Iter: %v", err)
	}
	if !it.Next() || it.Id() != objID {
		t.Fatal("Iter over v2 layout did not yield the written id")
	}
}

func TestWriteAllIsAtomic(t *testing.T) {
	l := newTestBackend(t)
	objID, err := id.Random()
	if err != nil {
		t.Fatalf("id.Random: %v", err)
	}
	if err := l.WriteAll(obj.KindLock, objID, []byte("first")); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if err := l.WriteAll(obj.KindLock, objID, []byte("second")); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	got, err := l.ReadAll(obj.KindLock, objID)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("ReadAll() = %q, want %q", got, "second")
	}
}
