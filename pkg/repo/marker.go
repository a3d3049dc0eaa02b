package repo

import "github.com/dechst-go/dechst/pkg/obj"

// Access is the access level a caller requests for one protectable object
// kind. It is a direct alias of obj.LockAccess: Marker and Lock.State share
// the same three-value lattice.
type Access = obj.LockAccess

const (
	AccessNone      = obj.LockAccessNone
	AccessShared    = obj.LockAccessShared
	AccessExclusive = obj.LockAccessExclusive
)

// Marker is the per-kind access level a session requests when locking. A
// LockedRepo carries the Marker it was locked with, and every read/update
// method on it checks the relevant field before touching the backend.
type Marker struct {
	Config   Access
	Index    Access
	Key      Access
	Snapshot Access
	Pack     Access
}

// NoLock requests no access to any kind.
var NoLock = Marker{}

// ReadLock requests shared access to every kind.
var ReadLock = Marker{
	Config:   AccessShared,
	Index:    AccessShared,
	Key:      AccessShared,
	Snapshot: AccessShared,
	Pack:     AccessShared,
}

// WriteLock requests exclusive access to every kind.
var WriteLock = Marker{
	Config:   AccessExclusive,
	Index:    AccessExclusive,
	Key:      AccessExclusive,
	Snapshot: AccessExclusive,
	Pack:     AccessExclusive,
}

// state renders m as the obj.LockState stored in the Lock object's on-disk
// record.
func (m Marker) state() obj.LockState {
	return obj.LockState{
		Config:   m.Config,
		Index:    m.Index,
		Key:      m.Key,
		Snapshot: m.Snapshot,
		Pack:     m.Pack,
	}
}

// Compatible reports whether m may be held at the same time as other,
// kind by kind.
func (m Marker) Compatible(other Marker) bool {
	return m.state().Compatible(other.state())
}
