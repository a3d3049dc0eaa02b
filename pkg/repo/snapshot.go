package repo

import (
	"fmt"

	"github.com/dechst-go/dechst/pkg/backend"
	cborcodec "github.com/dechst-go/dechst/pkg/codec/cbor"
	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/obj"
)

// SnapshotExists requires snapshot: Shared|Exclusive.
func (l *LockedRepo) SnapshotExists(snapID id.Id) error {
	if err := requireAtLeast(l.marker.Snapshot, AccessShared); err != nil {
		return err
	}
	return l.backend.Exists(obj.KindSnapshot, snapID)
}

// Snapshots lists every Snapshot id. Requires snapshot: Shared|Exclusive.
func (l *LockedRepo) Snapshots() (backend.Iterator, error) {
	if err := requireAtLeast(l.marker.Snapshot, AccessShared); err != nil {
		return nil, err
	}
	return l.backend.Iter(obj.KindSnapshot)
}

// SnapshotsFind resolves several hex prefixes against the repository's
// snapshot ids.
func (l *LockedRepo) SnapshotsFind(prefixes []string) ([]backend.FindResult, error) {
	if err := requireAtLeast(l.marker.Snapshot, AccessShared); err != nil {
		return nil, err
	}
	return backend.FindIDs(l.backend, obj.KindSnapshot, prefixes)
}

// SnapshotRead reads and unprocesses the Snapshot stored under snapID.
// Requires snapshot: Shared|Exclusive.
func (l *LockedRepo) SnapshotRead(snapID id.Id) (obj.Snapshot, error) {
	if err := requireAtLeast(l.marker.Snapshot, AccessShared); err != nil {
		return obj.Snapshot{}, err
	}
	raw, err := l.backend.ReadAll(obj.KindSnapshot, snapID)
	if err != nil {
		return obj.Snapshot{}, fmt.Errorf("repo: read snapshot %s: %w", snapID, err)
	}
	plain, err := l.Pipeline().Unprocess(raw)
	if err != nil {
		return obj.Snapshot{}, fmt.Errorf("repo: unprocess snapshot %s: %w", snapID, err)
	}
	var snap obj.Snapshot
	if err := cborcodec.Unmarshal(plain, &snap); err != nil {
		return obj.Snapshot{}, fmt.Errorf("repo: decode snapshot %s: %w", snapID, err)
	}
	return snap, nil
}

// SnapshotWrite pipelines and writes snap as a new Snapshot object and
// returns the id it was stored under. The id is derived from the processed
// bytes, so it cannot be stamped into the stored record itself; callers
// that want snap.ID populated set it from the return value. Requires
// snapshot: Exclusive.
func (l *LockedRepo) SnapshotWrite(snap obj.Snapshot) (id.Id, error) {
	if err := requireAtLeast(l.marker.Snapshot, AccessExclusive); err != nil {
		return id.Id{}, err
	}
	plain, err := cborcodec.Marshal(snap)
	if err != nil {
		return id.Id{}, fmt.Errorf("repo: serialize snapshot: %w", err)
	}
	processed, err := l.Pipeline().Process(plain)
	if err != nil {
		return id.Id{}, fmt.Errorf("repo: process snapshot: %w", err)
	}
	snapID := l.identify(processed)
	if err := l.backend.WriteAll(obj.KindSnapshot, snapID, processed); err != nil {
		return id.Id{}, fmt.Errorf("repo: write snapshot %s: %w", snapID, err)
	}
	return snapID, nil
}
