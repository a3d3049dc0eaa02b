// Package tree defines the on-disk shape of a directory tree blob: an
// ordered list of Nodes, one per directory entry. The two-phase
// construction logic that produces a Tree lives in the top-level pkg/tree
// package; this package only holds the record types and their CBOR shape.
package tree

import (
	"time"

	"github.com/dechst-go/dechst/pkg/id"
)

// Kind discriminates the variants of NodeKind. CBOR has no native sum type,
// so each Node carries an explicit Kind tag alongside whichever of
// NodeKind's fields that variant uses.
type Kind string

const (
	KindFile            Kind = "file"
	KindDirectory       Kind = "directory"
	KindSymlink         Kind = "symlink"
	KindDevice          Kind = "device"
	KindCharacterDevice Kind = "char_device"
	KindFifo            Kind = "fifo"
	KindSocket          Kind = "socket"
)

// TargetHint disambiguates a Windows reparse-point symlink's target type
// when the filesystem cannot tell by itself. It is always nil on unix.
type TargetHint string

const (
	TargetHintDirectory TargetHint = "directory"
	TargetHintFile      TargetHint = "file"
)

// NodeKind is the tagged-union payload of a Node. Only the fields relevant
// to Kind are populated; the rest are left at their zero value and omitted
// from the serialized form.
type NodeKind struct {
	Kind Kind `cbor:"kind"`

	// File
	Blobs []id.Id `cbor:"blobs,omitempty"`

	// Directory
	Subtree *id.Id `cbor:"subtree,omitempty"`

	// Symlink
	Target string      `cbor:"target,omitempty"`
	Hint   *TargetHint `cbor:"hint,omitempty"`

	// Device, CharacterDevice
	Device uint64 `cbor:"device,omitempty"`
}

// FileKind returns an empty file NodeKind; pkg/backup fills in Blobs with
// the file's chunk ids before the node is added to a TreeBuilder.
func FileKind() NodeKind { return NodeKind{Kind: KindFile} }

// DirKind returns an unresolved directory NodeKind; TreeBuilder fills in
// Subtree once the subdirectory's own Tree has been built and pipelined.
func DirKind() NodeKind { return NodeKind{Kind: KindDirectory} }

// SymlinkKind returns a symlink NodeKind pointing at target.
func SymlinkKind(target string, hint *TargetHint) NodeKind {
	return NodeKind{Kind: KindSymlink, Target: target, Hint: hint}
}

// DeviceKind returns a block device NodeKind.
func DeviceKind(device uint64) NodeKind {
	return NodeKind{Kind: KindDevice, Device: device}
}

// CharacterDeviceKind returns a character device NodeKind.
func CharacterDeviceKind(device uint64) NodeKind {
	return NodeKind{Kind: KindCharacterDevice, Device: device}
}

// FifoKind returns a named-pipe NodeKind.
func FifoKind() NodeKind { return NodeKind{Kind: KindFifo} }

// SocketKind returns a unix domain socket NodeKind.
func SocketKind() NodeKind { return NodeKind{Kind: KindSocket} }

// Metadata is the minimal, cross-platform metadata captured for every
// node. UID and GID are nil wherever the platform does not expose them.
type Metadata struct {
	UID     *uint32   `cbor:"uid,omitempty"`
	GID     *uint32   `cbor:"gid,omitempty"`
	Mode    uint32    `cbor:"mode,omitempty"`
	ModTime time.Time `cbor:"mtime,omitempty"`
	Size    uint64    `cbor:"len,omitempty"`
}

// Node is one directory entry: a name, a tagged-union payload describing
// what it is, and the metadata captured for it.
type Node struct {
	Name string   `cbor:"name"`
	Kind NodeKind `cbor:"kind"`
	Meta Metadata `cbor:"meta"`
}

// Tree is the serialized, content-addressed form of a single directory's
// entries. Node order is preserved exactly as TreeBuilder produced it;
// nothing reorders siblings once written.
type Tree struct {
	Nodes []Node `cbor:"nodes"`
}
