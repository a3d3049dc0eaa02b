package repo

import (
	"fmt"

	"golang.org/x/sys/unix"

	cborcodec "github.com/dechst-go/dechst/pkg/codec/cbor"
	"github.com/dechst-go/dechst/pkg/obj"
)

// PurgeStaleLocks removes every Lock object whose recorded pid is not a
// live process on the current host: a crashed process cannot remove its
// own Lock, so administrator tooling has to. It returns the ids removed.
// Locks recorded by a different hostname than the current one are left
// alone: this process has no way to check liveness on another host.
func (d *DecryptedRepo) PurgeStaleLocks() ([]string, error) {
	it, err := d.backend.Iter(obj.KindLock)
	if err != nil {
		return nil, fmt.Errorf("repo: list locks: %w", err)
	}

	hostname := obj.CurrentUser().Hostname

	var purged []string
	for it.Next() {
		lockID := it.Id()
		raw, err := d.backend.ReadAll(obj.KindLock, lockID)
		if err != nil {
			return purged, fmt.Errorf("repo: read lock %s: %w", lockID, err)
		}
		plain, err := d.Pipeline().Unprocess(raw)
		if err != nil {
			return purged, fmt.Errorf("repo: unprocess lock %s: %w", lockID, err)
		}
		var lock obj.Lock
		if err := cborcodec.Unmarshal(plain, &lock); err != nil {
			return purged, fmt.Errorf("repo: decode lock %s: %w", lockID, err)
		}

		if lock.Meta.User.Hostname != hostname {
			continue
		}
		if processAlive(int(lock.Meta.PID)) {
			continue
		}
		if err := d.backend.Remove(obj.KindLock, lockID); err != nil {
			return purged, fmt.Errorf("repo: remove stale lock %s: %w", lockID, err)
		}
		purged = append(purged, lockID.String())
	}
	if err := it.Err(); err != nil {
		return purged, fmt.Errorf("repo: list locks: %w", err)
	}
	return purged, nil
}

// processAlive probes pid with signal 0, the standard unix idiom for
// checking liveness without affecting the target process.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return unix.Kill(pid, 0) == nil
}
