// Package source defines the polymorphic item-producer contract a
// repository ingests from. pkg/source/fssource and pkg/source/stdinsource
// are the two variants; the platform metadata extraction each relies on
// lives in pkg/source/fsmeta.
package source

import (
	"io"

	"github.com/dechst-go/dechst/pkg/obj/tree"
)

// Item is one entry a Source can read or descend into. CanDescend reports
// whether Source.Iter may be called with this item as its parent (true for
// directories, false for every other node kind).
type Item interface {
	CanDescend() bool
}

// Source lazily produces ingestible items from a data origin (a filesystem
// tree, stdin). Iter, Read, and Node all accept the same opaque Item values
// a prior Iter call yielded.
type Source interface {
	// Iter streams the children of parent, or the source's top-level items
	// when parent is nil.
	Iter(parent Item) (Iter, error)

	// Read opens item for reading. Only meaningful for non-directory items.
	Read(item Item) (io.ReadCloser, error)

	// Node captures item's metadata as a tree.Node: Name is the item's
	// leaf name and Kind is populated per the underlying item type, so
	// the result can be handed to a TreeBuilder directly.
	Node(item Item) (tree.Node, error)
}

// Iter is a lazy, finite, non-restartable sequence of Items.
type Iter interface {
	Next() bool
	Item() Item
	Err() error
}
