package repo

import (
	"fmt"

	"github.com/dechst-go/dechst/pkg/backend"
	cborcodec "github.com/dechst-go/dechst/pkg/codec/cbor"
	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/obj"
)

// IndexExists requires index: Shared|Exclusive.
func (l *LockedRepo) IndexExists(indexID id.Id) error {
	if err := requireAtLeast(l.marker.Index, AccessShared); err != nil {
		return err
	}
	return l.backend.Exists(obj.KindIndex, indexID)
}

// Indices lists every Index id. Requires index: Shared|Exclusive.
func (l *LockedRepo) Indices() (backend.Iterator, error) {
	if err := requireAtLeast(l.marker.Index, AccessShared); err != nil {
		return nil, err
	}
	return l.backend.Iter(obj.KindIndex)
}

// IndicesFind resolves several hex prefixes against the repository's index
// ids.
func (l *LockedRepo) IndicesFind(prefixes []string) ([]backend.FindResult, error) {
	if err := requireAtLeast(l.marker.Index, AccessShared); err != nil {
		return nil, err
	}
	return backend.FindIDs(l.backend, obj.KindIndex, prefixes)
}

// IndexRead reads and unprocesses the Index stored under indexID. Requires
// index: Shared|Exclusive.
func (l *LockedRepo) IndexRead(indexID id.Id) (obj.Index, error) {
	if err := requireAtLeast(l.marker.Index, AccessShared); err != nil {
		return obj.Index{}, err
	}
	raw, err := l.backend.ReadAll(obj.KindIndex, indexID)
	if err != nil {
		return obj.Index{}, fmt.Errorf("repo: read index %s: %w", indexID, err)
	}
	plain, err := l.Pipeline().Unprocess(raw)
	if err != nil {
		return obj.Index{}, fmt.Errorf("repo: unprocess index %s: %w", indexID, err)
	}
	var idx obj.Index
	if err := cborcodec.Unmarshal(plain, &idx); err != nil {
		return obj.Index{}, fmt.Errorf("repo: decode index %s: %w", indexID, err)
	}
	return idx, nil
}

// IndexWrite pipelines and writes idx as a new Index object, returning the
// id it was stored under. Requires index: Exclusive.
func (l *LockedRepo) IndexWrite(idx obj.Index) (id.Id, error) {
	if err := requireAtLeast(l.marker.Index, AccessExclusive); err != nil {
		return id.Id{}, err
	}
	plain, err := cborcodec.Marshal(idx)
	if err != nil {
		return id.Id{}, fmt.Errorf("repo: serialize index: %w", err)
	}
	processed, err := l.Pipeline().Process(plain)
	if err != nil {
		return id.Id{}, fmt.Errorf("repo: process index: %w", err)
	}
	indexID := l.identify(processed)
	if err := l.backend.WriteAll(obj.KindIndex, indexID, processed); err != nil {
		return id.Id{}, fmt.Errorf("repo: write index %s: %w", indexID, err)
	}
	return indexID, nil
}
