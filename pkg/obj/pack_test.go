package obj_test

import (
	"bytes"
	"testing"

	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/obj"
)

func mustRandomID(t *testing.T) id.Id {
	t.Helper()
	got, err := id.Random()
	if err != nil {
		t.Fatalf("id.Random: %v", err)
	}
	return got
}

// TestAssembleDisassemblePackRoundTrip covers the pack layout invariant:
// the blob region followed by the header followed by the header_len
// trailer round-trips to the same blobs and offsets.
func TestAssembleDisassemblePackRoundTrip(t *testing.T) {
	blobs := []obj.ProcessedBlob{
		{ID: mustRandomID(t), Kind: obj.BlobKindData, Processed: []byte("first blob"), UnprocessedLen: 32},
		{ID: mustRandomID(t), Kind: obj.BlobKindTree, Processed: []byte("second, a tree blob"), UnprocessedLen: 64},
		{ID: mustRandomID(t), Kind: obj.BlobKindData, Processed: []byte(""), UnprocessedLen: 0},
	}

	raw, entries, err := obj.AssemblePack(blobs)
	if err != nil {
		t.Fatalf("AssemblePack: %v", err)
	}
	if len(entries) != len(blobs) {
		t.Fatalf("AssemblePack returned %d entries, want %d", len(entries), len(blobs))
	}

	blobRegion, gotEntries, err := obj.DisassemblePack(raw)
	if err != nil {
		t.Fatalf("DisassemblePack: %v", err)
	}
	if len(gotEntries) != len(blobs) {
		t.Fatalf("DisassemblePack returned %d entries, want %d", len(gotEntries), len(blobs))
	}

	for i, want := range blobs {
		got := gotEntries[i]
		if got.ID != want.ID {
			t.Fatalf("entry %d: ID = %v, want %v", i, got.ID, want.ID)
		}
		if got.Kind != want.Kind {
			t.Fatalf("entry %d: Kind = %v, want %v", i, got.Kind, want.Kind)
		}
		if got.UnprocessedLen != want.UnprocessedLen {
			t.Fatalf("entry %d: UnprocessedLen = %d, want %d", i, got.UnprocessedLen, want.UnprocessedLen)
		}
		gotBytes, err := got.BlobBytes(blobRegion)
		if err != nil {
			t.Fatalf("entry %d: BlobBytes: %v", i, err)
		}
		if !bytes.Equal(gotBytes, want.Processed) {
			t.Fatalf("entry %d: BlobBytes = %q, want %q", i, gotBytes, want.Processed)
		}
	}
}

// TestDisassemblePackRejectsTruncated ensures a pack shorter than the
// trailing header_len field is rejected rather than panicking.
func TestDisassemblePackRejectsTruncated(t *testing.T) {
	if _, _, err := obj.DisassemblePack([]byte{0x01, 0x02}); err == nil {
		t.Fatal("DisassemblePack on a too-short buffer succeeded, want error")
	}
}

// TestDisassemblePackRejectsCorruptHeaderLen ensures a header_len claiming
// more bytes than the buffer holds is rejected.
func TestDisassemblePackRejectsCorruptHeaderLen(t *testing.T) {
	raw := []byte{0xff, 0xff, 0xff, 0x7f} // huge LE header_len, no actual header
	if _, _, err := obj.DisassemblePack(raw); err == nil {
		t.Fatal("DisassemblePack with corrupt header_len succeeded, want error")
	}
}
