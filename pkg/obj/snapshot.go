package obj

import (
	"time"

	"github.com/dechst-go/dechst/pkg/id"
)

// Snapshot records one completed ingestion: the root tree it produced, the
// user and path it came from, and an optional parent snapshot for tooling
// that wants to diff or chain snapshots of the same source.
type Snapshot struct {
	Time        time.Time         `cbor:"time"`
	Parent      *id.Id            `cbor:"parent,omitempty"`
	Tree        id.Id             `cbor:"tree"`
	User        User              `cbor:"user"`
	Root        string            `cbor:"root"`
	Tags        []string          `cbor:"tags,omitempty"`
	UserData    map[string]string `cbor:"user_data,omitempty"`
	Name        string            `cbor:"name,omitempty"`
	Description string            `cbor:"description,omitempty"`
	ID          id.Id             `cbor:"id"`
}

// NewSnapshot stamps the current time and user for a freshly completed
// ingestion. ID is left zero; the caller sets it once the Snapshot's own
// content id is known, after the serialized bytes have been identified.
func NewSnapshot(tree id.Id, root string) Snapshot {
	return Snapshot{
		Time: time.Now().UTC(),
		Tree: tree,
		User: CurrentUser(),
		Root: root,
	}
}

// Kind implements Object.
func (Snapshot) Kind() Kind { return KindSnapshot }
