package repo

import (
	"fmt"

	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/obj"
)

// Compact merges every Index object into a single replacement: all
// PackEntry values are concatenated (minus any blob id named in a source
// Index's Delete list), and the new Index's Supersedes field lists every
// Index it replaces. The superseded Index objects and the Pack bytes they
// describe are left in place: Compact performs only the tombstone
// bookkeeping, not physical reclamation of unreferenced pack bytes.
// Requires index: Exclusive.
func (l *LockedRepo) Compact() (id.Id, error) {
	if err := requireAtLeast(l.marker.Index, AccessExclusive); err != nil {
		return id.Id{}, err
	}

	it, err := l.backend.Iter(obj.KindIndex)
	if err != nil {
		return id.Id{}, fmt.Errorf("repo: compact: list indices: %w", err)
	}

	deleted := make(map[id.Id]bool)
	var supersedes []id.Id
	var packs []obj.PackEntry

	for it.Next() {
		indexID := it.Id()
		idx, err := l.IndexRead(indexID)
		if err != nil {
			return id.Id{}, fmt.Errorf("repo: compact: read index %s: %w", indexID, err)
		}
		supersedes = append(supersedes, indexID)
		for _, blobID := range idx.Delete {
			deleted[blobID] = true
		}
		packs = append(packs, idx.Packs...)
	}
	if err := it.Err(); err != nil {
		return id.Id{}, fmt.Errorf("repo: compact: list indices: %w", err)
	}

	merged := make([]obj.PackEntry, 0, len(packs))
	for _, pe := range packs {
		blobs := make([]obj.BlobEntry, 0, len(pe.Blobs))
		for _, be := range pe.Blobs {
			if deleted[be.ID] {
				continue
			}
			blobs = append(blobs, be)
		}
		pe.Blobs = blobs
		merged = append(merged, pe)
	}

	newIndex := obj.Index{Supersedes: supersedes, Packs: merged}
	return l.IndexWrite(newIndex)
}
