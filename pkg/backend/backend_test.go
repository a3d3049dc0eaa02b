package backend_test

import (
	"testing"

	"github.com/dechst-go/dechst/pkg/backend"
	"github.com/dechst-go/dechst/pkg/backend/local"
	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/obj"
)

func TestFindIDResolvesUniquePrefix(t *testing.T) {
	l := local.New(t.TempDir())
	if err := l.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	objID, err := id.Random()
	if err != nil {
		t.Fatalf("id.Random: %v", err)
	}
	if err := l.WriteAll(obj.KindSnapshot, objID, []byte("x")); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	prefix := objID.String()[:8]
	res, err := backend.FindID(l, obj.KindSnapshot, prefix)
	if err != nil {
		t.Fatalf("FindID: %v", err)
	}
	if res.Outcome != backend.FindUnique || res.ID != objID {
		t.Fatalf("FindID() = %+v, want unique match for %s", res, objID)
	}
}

func TestFindIDNoneForUnknownPrefix(t *testing.T) {
	l := local.New(t.TempDir())
	if err := l.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	res, err := backend.FindID(l, obj.KindSnapshot, "deadbeef")
	if err != nil {
		t.Fatalf("FindID: %v", err)
	}
	if res.Outcome != backend.FindNone {
		t.Fatalf("FindID() = %+v, want FindNone", res)
	}
}

func TestFindIDNonUniqueForAmbiguousPrefix(t *testing.T) {
	l := local.New(t.TempDir())
	if err := l.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	a, err := id.Random()
	if err != nil {
		t.Fatalf("id.Random: %v", err)
	}
	if err := l.WriteAll(obj.KindSnapshot, a, []byte("a")); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	// A zero-length prefix matches every stored id, forcing a non-unique
	// result as soon as there is more than one object.
	b, err := id.Random()
	if err != nil {
		t.Fatalf("id.Random: %v", err)
	}
	if err := l.WriteAll(obj.KindSnapshot, b, []byte("b")); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	res, err := backend.FindID(l, obj.KindSnapshot, "")
	if err != nil {
		t.Fatalf("FindID: %v", err)
	}
	if res.Outcome != backend.FindNonUnique {
		t.Fatalf("FindID() = %+v, want FindNonUnique", res)
	}
}
