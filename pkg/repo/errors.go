package repo

import (
	"errors"
	"fmt"

	"github.com/dechst-go/dechst/pkg/obj"
)

// ErrAccessDenied is returned by a LockedRepo operation whose kind the
// session's Marker does not grant at the required Access level.
var ErrAccessDenied = errors.New("repo: access denied for this lock marker")

// ErrNoSuchKey is returned by DecryptAny when the repository holds no keys
// at all.
var ErrNoSuchKey = errors.New("repo: no such key")

// LockConflictError reports that a requested Marker is incompatible with
// an already-held Lock. Holder is the conflicting Lock's recorded
// metadata, for diagnostics.
type LockConflictError struct {
	Requested Marker
	Holder    obj.LockMeta
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("repo: lock conflict with session held by %s@%s (pid %d)",
		e.Holder.User.Username, e.Holder.User.Hostname, e.Holder.PID)
}

func requireAtLeast(have, want Access) error {
	if have < want {
		return ErrAccessDenied
	}
	return nil
}
