// Package obj defines the on-disk record shapes of a dechst repository:
// Config, Key, Lock, Index, Pack, Snapshot, and
// the tree Node types under pkg/obj/tree. Every type here round-trips through
// canonical CBOR via pkg/codec/cbor.
package obj

// Kind identifies which class of repository object a record belongs to. It
// doubles as the name of the backend directory that stores objects of that
// kind (pkg/backend/local lays out one subdirectory per Kind).
type Kind string

const (
	KindConfig   Kind = "config"
	KindIndex    Kind = "indices"
	KindKey      Kind = "keys"
	KindSnapshot Kind = "snapshots"
	KindPack     Kind = "packs"
	KindLock     Kind = "locks"
)

// String satisfies fmt.Stringer.
func (k Kind) String() string { return string(k) }

// Cacheable reports whether objects of this kind are safe to keep in a local
// read cache across repository opens. Config, Key, Pack, and Lock are not:
// Config and Key are read once per open, Pack objects are large and read by
// byte range, and Lock objects must always be read fresh to avoid racing
// another writer.
func (k Kind) Cacheable() bool {
	switch k {
	case KindSnapshot, KindIndex:
		return true
	default:
		return false
	}
}

// DirectoryKinds lists every Kind that is stored under its own backend
// subdirectory. KindConfig is deliberately excluded: the config object is a
// single file at the repository root, not a directory of content-addressed
// entries.
var DirectoryKinds = []Kind{KindIndex, KindKey, KindSnapshot, KindPack, KindLock}

// Object is implemented by every repository record type so that generic
// backend and pipeline code can ask a value which Kind it belongs to without
// a type switch.
type Object interface {
	Kind() Kind
}
