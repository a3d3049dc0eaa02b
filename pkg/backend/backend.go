// Package backend defines the content-addressed object store contract a
// repository is built on. pkg/backend/local is
// the default on-disk implementation; any type satisfying Backend can back
// a repository.
package backend

import (
	"errors"
	"fmt"
	"time"

	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/obj"
)

// ErrNotFound is returned by Exists, Meta, ReadAll, and ReadAt when the
// requested object does not exist.
var ErrNotFound = errors.New("backend: object not found")

// Metadata is the subset of filesystem metadata every backend must be able
// to report about an object, regardless of how it stores bytes.
type Metadata struct {
	Accessed time.Time
	Created  time.Time
	Modified time.Time
	Len      uint64
}

// Backend is the full read/write contract a repository needs. It is a
// single interface rather than split read-only and read-write halves: a
// read-only view is better expressed by simply not calling the mutating
// methods than by a second interface a caller must remember to use.
type Backend interface {
	// MountPoint describes where this backend is rooted (a file path, a
	// URL, ...), for diagnostics only.
	MountPoint() string

	// Verify checks that the backend's storage is laid out correctly
	// (every DirectoryKinds subdirectory present, config reachable).
	Verify() error

	// Create initializes a fresh, empty repository layout.
	Create() error

	// Iter streams every Id currently stored under kind.
	Iter(kind obj.Kind) (Iterator, error)

	// Exists reports whether id is stored under kind.
	Exists(kind obj.Kind, objID id.Id) error

	// Meta returns metadata about the object stored under kind/id.
	Meta(kind obj.Kind, objID id.Id) (Metadata, error)

	// ReadAll reads the entire object stored under kind/id.
	ReadAll(kind obj.Kind, objID id.Id) ([]byte, error)

	// ReadAt reads len(buf) bytes starting at offset from the object
	// stored under kind/id. Only KindPack objects need ranged reads;
	// whether other kinds support them is up to the implementation.
	ReadAt(kind obj.Kind, objID id.Id, offset int64, buf []byte) (int, error)

	// WriteAll atomically writes buf as the object stored under kind/id,
	// never leaving a partially written object visible to a concurrent
	// reader.
	WriteAll(kind obj.Kind, objID id.Id, buf []byte) error

	// Remove deletes the object stored under kind/id.
	Remove(kind obj.Kind, objID id.Id) error
}

// Iterator yields every Id a backend reports under one Kind.
type Iterator interface {
	// Next advances the iterator and reports whether a value is
	// available; Id is valid only after Next returns true.
	Next() bool
	Id() id.Id
	Err() error
}

// Find is the result of resolving a hex prefix against a backend's stored
// Ids.
type Find int

const (
	FindNone Find = iota
	FindUnique
	FindNonUnique
)

// FindResult pairs a Find outcome with the resolved Id, valid only when
// Outcome is FindUnique.
type FindResult struct {
	Outcome Find
	ID      id.Id
}

// FindID resolves a hex id prefix against every Id a backend reports under
// kind. It works over the Iterator contract alone, so every Backend
// implementation gets prefix resolution for free without having to
// implement its own scan.
func FindID(b Backend, kind obj.Kind, prefix string) (FindResult, error) {
	results, err := FindIDs(b, kind, []string{prefix})
	if err != nil {
		return FindResult{}, err
	}
	return results[0], nil
}

// FindIDs resolves many hex id prefixes in a single pass over the backend's
// Iterator, short-circuiting once every prefix has matched more than one Id.
func FindIDs(b Backend, kind obj.Kind, prefixes []string) ([]FindResult, error) {
	results := make([]FindResult, len(prefixes))
	if len(prefixes) == 0 {
		return results, nil
	}

	it, err := b.Iter(kind)
	if err != nil {
		return nil, fmt.Errorf("backend: find ids: %w", err)
	}

	nonUnique := 0
	for it.Next() {
		objID := it.Id()
		hex := objID.String()
		for i, prefix := range prefixes {
			if len(hex) < len(prefix) || hex[:len(prefix)] != prefix {
				continue
			}
			switch results[i].Outcome {
			case FindNone:
				results[i] = FindResult{Outcome: FindUnique, ID: objID}
			case FindUnique:
				results[i] = FindResult{Outcome: FindNonUnique}
				nonUnique++
				if nonUnique >= len(results) {
					return results, nil
				}
			}
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("backend: find ids: iterate %s: %w", kind, err)
	}
	return results, nil
}
