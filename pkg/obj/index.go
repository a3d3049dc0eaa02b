package obj

import (
	"time"

	"github.com/dechst-go/dechst/pkg/id"
)

// BlobKind distinguishes tree blobs (serialized obj/tree.Tree values) from
// ordinary data blobs (chunk payloads) inside a Pack.
type BlobKind string

const (
	BlobKindTree BlobKind = "tree"
	BlobKindData BlobKind = "data"
)

// BlobEntry locates one blob within a Pack's blob region.
type BlobEntry struct {
	ID             id.Id    `cbor:"id"`
	Kind           BlobKind `cbor:"kind"`
	Offset         uint32   `cbor:"offset"`
	ProcessedLen   uint32   `cbor:"processed_len"`
	UnprocessedLen uint32   `cbor:"unprocessed_len"`
}

// PackEntry describes one Pack object and every blob it contains. Time and
// Size are advisory bookkeeping fields populated when an Index is built from
// a freshly written Pack; both are omitted when absent (e.g. an Index
// rebuilt from pack headers alone).
type PackEntry struct {
	ID    id.Id       `cbor:"id"`
	Blobs []BlobEntry `cbor:"blobs"`
	Time  *time.Time  `cbor:"time,omitempty"`
	Size  *uint32     `cbor:"size,omitempty"`
}

// Index maps blob Ids to the Pack that holds them. Supersedes lists the Ids
// of older Index objects this one replaces (written by pkg/repo.Compact);
// Delete lists blob Ids whose BlobEntry values the next compaction drops
// from the Pack entries it merges.
type Index struct {
	Supersedes []id.Id     `cbor:"supersedes,omitempty"`
	Packs      []PackEntry `cbor:"packs"`
	Delete     []id.Id     `cbor:"delete,omitempty"`
}

// Kind implements Object.
func (Index) Kind() Kind { return KindIndex }
