package repo

import (
	"fmt"

	"github.com/dechst-go/dechst/pkg/backend"
	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/obj"
)

// PackExists requires pack: Shared|Exclusive.
func (l *LockedRepo) PackExists(packID id.Id) error {
	if err := requireAtLeast(l.marker.Pack, AccessShared); err != nil {
		return err
	}
	return l.backend.Exists(obj.KindPack, packID)
}

// Packs lists every Pack id. Requires pack: Shared|Exclusive.
func (l *LockedRepo) Packs() (backend.Iterator, error) {
	if err := requireAtLeast(l.marker.Pack, AccessShared); err != nil {
		return nil, err
	}
	return l.backend.Iter(obj.KindPack)
}

// PacksFind resolves several hex prefixes against the repository's pack ids.
func (l *LockedRepo) PacksFind(prefixes []string) ([]backend.FindResult, error) {
	if err := requireAtLeast(l.marker.Pack, AccessShared); err != nil {
		return nil, err
	}
	return backend.FindIDs(l.backend, obj.KindPack, prefixes)
}

// PackReadAll reads an entire Pack object's raw bytes (blob region, header,
// trailer). Requires pack: Shared|Exclusive.
func (l *LockedRepo) PackReadAll(packID id.Id) ([]byte, error) {
	if err := requireAtLeast(l.marker.Pack, AccessShared); err != nil {
		return nil, err
	}
	raw, err := l.backend.ReadAll(obj.KindPack, packID)
	if err != nil {
		return nil, fmt.Errorf("repo: read pack %s: %w", packID, err)
	}
	return raw, nil
}

// PackReadAt reads len(buf) raw bytes from packID starting at offset,
// without pulling the whole pack into memory. Requires pack: Shared|Exclusive.
func (l *LockedRepo) PackReadAt(packID id.Id, offset int64, buf []byte) (int, error) {
	if err := requireAtLeast(l.marker.Pack, AccessShared); err != nil {
		return 0, err
	}
	n, err := l.backend.ReadAt(obj.KindPack, packID, offset, buf)
	if err != nil {
		return n, fmt.Errorf("repo: read pack %s at %d: %w", packID, offset, err)
	}
	return n, nil
}

// PackWrite writes raw as a new Pack object identified by packID, which the
// caller has already computed as the content id of raw under the
// repository's identify sub-key: a Pack's blobs, not the Pack container
// itself, are individually addressed, so the Pack object's own id is
// assigned by whoever assembles it. Requires pack: Exclusive.
func (l *LockedRepo) PackWrite(packID id.Id, raw []byte) error {
	if err := requireAtLeast(l.marker.Pack, AccessExclusive); err != nil {
		return err
	}
	if err := l.backend.WriteAll(obj.KindPack, packID, raw); err != nil {
		return fmt.Errorf("repo: write pack %s: %w", packID, err)
	}
	return nil
}
