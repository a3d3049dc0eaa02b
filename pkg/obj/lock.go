package obj

import "time"

// LockAccess is the access level a lock holder declares for one kind of
// repository object. The zero value, LockAccessNone, means the holder does
// not touch that kind at all.
type LockAccess int

const (
	LockAccessNone LockAccess = iota
	LockAccessShared
	LockAccessExclusive
)

// String satisfies fmt.Stringer.
func (a LockAccess) String() string {
	switch a {
	case LockAccessNone:
		return "none"
	case LockAccessShared:
		return "shared"
	case LockAccessExclusive:
		return "exclusive"
	default:
		return "invalid"
	}
}

// Compatible reports whether a and b may be held concurrently by two
// different locks. None is compatible with anything, Shared is compatible
// with Shared and None, and Exclusive is compatible with nothing but None.
func (a LockAccess) Compatible(b LockAccess) bool {
	if a == LockAccessNone || b == LockAccessNone {
		return true
	}
	return a == LockAccessShared && b == LockAccessShared
}

// LockState is the per-kind access declaration a held Lock makes. pkg/repo
// checks it against every other live Lock before granting access.
type LockState struct {
	Config   LockAccess `cbor:"config"`
	Index    LockAccess `cbor:"index"`
	Key      LockAccess `cbor:"key"`
	Snapshot LockAccess `cbor:"snapshot"`
	Pack     LockAccess `cbor:"pack"`
}

// Compatible reports whether s and other may be held at the same time,
// kind by kind.
func (s LockState) Compatible(other LockState) bool {
	return s.Config.Compatible(other.Config) &&
		s.Index.Compatible(other.Index) &&
		s.Key.Compatible(other.Key) &&
		s.Snapshot.Compatible(other.Snapshot) &&
		s.Pack.Compatible(other.Pack)
}

// LockMeta identifies who holds a Lock, when it was acquired, and the pid of
// the holding process (used by PurgeStaleLocks to detect dead holders).
type LockMeta struct {
	User    User      `cbor:"user"`
	Created time.Time `cbor:"created"`
	PID     uint32    `cbor:"pid"`
}

// Lock is the on-disk record backing a single held lock. A repository may
// have many Locks at once as long as their LockStates are pairwise
// Compatible.
type Lock struct {
	Meta  LockMeta  `cbor:"meta"`
	State LockState `cbor:"state"`
}

// Kind implements Object.
func (Lock) Kind() Kind { return KindLock }
