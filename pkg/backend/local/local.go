// Package local implements pkg/backend.Backend over the local filesystem,
// the default object store for a dechst repository.
package local

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/dechst-go/dechst/pkg/backend"
	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/obj"
)

// configFileName is the single file holding the repository Config object,
// stored at the repository root rather than under its own directory.
const configFileName = "config"

// Local is a filesystem-rooted backend.Backend. The version 1 layout is:
//
//	<root>/config
//	<root>/keys/<hex>
//	<root>/indices/<hex>
//	<root>/snapshots/<hex>
//	<root>/locks/<hex>
//	<root>/packs/<hex[0:2]>/<hex>
//
// The version 2 layout, selected by the v2:// URL scheme, extends the
// two-hex-digit sharding from packs to every directory kind.
type Local struct {
	root    string
	version int
}

// New returns a version 1 Local backend rooted at root. It does not create
// root or any subdirectory; call Create for that.
func New(root string) *Local {
	return &Local{root: root, version: 1}
}

// NewV2 returns a version 2 Local backend rooted at root.
func NewV2(root string) *Local {
	return &Local{root: root, version: 2}
}

// Parse resolves a repository location string: a v2://<path> URL selects
// the version 2 layout, anything else is taken as a plain version 1 path.
func Parse(location string) *Local {
	const v2Scheme = "v2://"
	if rest, ok := strings.CutPrefix(location, v2Scheme); ok {
		return NewV2(rest)
	}
	return New(location)
}

// MountPoint implements backend.Backend.
func (l *Local) MountPoint() string { return l.root }

// sharded reports whether objects of kind live under two-hex-digit shard
// subdirectories in this layout version.
func (l *Local) sharded(kind obj.Kind) bool {
	if kind == obj.KindPack {
		return true
	}
	return l.version >= 2 && kind != obj.KindConfig
}

func (l *Local) resolve(kind obj.Kind, objID id.Id) string {
	hex := objID.String()
	if kind == obj.KindConfig {
		return filepath.Join(l.root, configFileName)
	}
	if l.sharded(kind) {
		return filepath.Join(l.root, string(kind), hex[:2], hex)
	}
	return filepath.Join(l.root, string(kind), hex)
}

func (l *Local) dir(kind obj.Kind) string {
	return filepath.Join(l.root, string(kind))
}

// Create initializes an empty repository layout: every entry in
// obj.DirectoryKinds becomes a subdirectory of root.
func (l *Local) Create() error {
	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return fmt.Errorf("backend/local: create root: %w", err)
	}
	for _, kind := range obj.DirectoryKinds {
		if err := os.MkdirAll(l.dir(kind), 0o755); err != nil {
			return fmt.Errorf("backend/local: create %s: %w", kind, err)
		}
	}
	return nil
}

// Verify checks that the config file is a regular file and that every
// required subdirectory exists and is writable.
func (l *Local) Verify() error {
	info, err := os.Stat(filepath.Join(l.root, configFileName))
	if err != nil {
		return fmt.Errorf("backend/local: verify config: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("backend/local: verify config: not a regular file")
	}
	for _, kind := range obj.DirectoryKinds {
		info, err := os.Stat(l.dir(kind))
		if err != nil {
			return fmt.Errorf("backend/local: verify %s: %w", kind, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("backend/local: verify %s: not a directory", kind)
		}
		if err := unix.Access(l.dir(kind), unix.W_OK); err != nil {
			return fmt.Errorf("backend/local: verify %s: not writable: %w", kind, err)
		}
	}
	return nil
}

// Exists implements backend.Backend.
func (l *Local) Exists(kind obj.Kind, objID id.Id) error {
	if _, err := os.Stat(l.resolve(kind, objID)); err != nil {
		if os.IsNotExist(err) {
			return backend.ErrNotFound
		}
		return fmt.Errorf("backend/local: exists %s/%s: %w", kind, objID, err)
	}
	return nil
}

// Meta implements backend.Backend.
func (l *Local) Meta(kind obj.Kind, objID id.Id) (backend.Metadata, error) {
	info, err := os.Stat(l.resolve(kind, objID))
	if err != nil {
		if os.IsNotExist(err) {
			return backend.Metadata{}, backend.ErrNotFound
		}
		return backend.Metadata{}, fmt.Errorf("backend/local: meta %s/%s: %w", kind, objID, err)
	}
	return backend.Metadata{
		Modified: info.ModTime(),
		Len:      uint64(info.Size()),
	}, nil
}

// ReadAll implements backend.Backend.
func (l *Local) ReadAll(kind obj.Kind, objID id.Id) ([]byte, error) {
	b, err := os.ReadFile(l.resolve(kind, objID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, backend.ErrNotFound
		}
		return nil, fmt.Errorf("backend/local: read %s/%s: %w", kind, objID, err)
	}
	return b, nil
}

// ReadAt implements backend.Backend. Only KindPack is expected to be read by
// range; other kinds are small enough that callers use ReadAll, but ReadAt
// works uniformly for any kind.
func (l *Local) ReadAt(kind obj.Kind, objID id.Id, offset int64, buf []byte) (int, error) {
	f, err := os.Open(l.resolve(kind, objID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, backend.ErrNotFound
		}
		return 0, fmt.Errorf("backend/local: open %s/%s: %w", kind, objID, err)
	}
	defer f.Close()

	n, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("backend/local: read at %s/%s: %w", kind, objID, err)
	}
	return n, nil
}

// WriteAll implements backend.Backend using a temp-file-then-rename so a
// concurrent reader never observes a partially written object.
func (l *Local) WriteAll(kind obj.Kind, objID id.Id, buf []byte) error {
	target := l.resolve(kind, objID)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("backend/local: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("backend/local: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("backend/local: write %s/%s: %w", kind, objID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("backend/local: sync %s/%s: %w", kind, objID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("backend/local: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("backend/local: rename into place %s/%s: %w", kind, objID, err)
	}
	return nil
}

// Remove implements backend.Backend.
func (l *Local) Remove(kind obj.Kind, objID id.Id) error {
	if err := os.Remove(l.resolve(kind, objID)); err != nil {
		if os.IsNotExist(err) {
			return backend.ErrNotFound
		}
		return fmt.Errorf("backend/local: remove %s/%s: %w", kind, objID, err)
	}
	return nil
}

// Iter implements backend.Backend.
func (l *Local) Iter(kind obj.Kind) (backend.Iterator, error) {
	var ids []id.Id

	walk := func(dir string) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			parsed, err := id.Parse(e.Name())
			if err != nil {
				continue
			}
			ids = append(ids, parsed)
		}
		return nil
	}

	if l.sharded(kind) {
		prefixes, err := os.ReadDir(l.dir(kind))
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("backend/local: iter %s: %w", kind, err)
			}
		} else {
			for _, p := range prefixes {
				if !p.IsDir() {
					continue
				}
				if err := walk(filepath.Join(l.dir(kind), p.Name())); err != nil {
					return nil, fmt.Errorf("backend/local: iter %s: %w", kind, err)
				}
			}
		}
	} else if err := walk(l.dir(kind)); err != nil {
		return nil, fmt.Errorf("backend/local: iter %s: %w", kind, err)
	}

	return &sliceIterator{ids: ids, pos: -1}, nil
}

// sliceIterator is a backend.Iterator over a pre-scanned, in-memory list of
// Ids; the local backend does not stream directory entries lazily since a
// repository's object counts are small enough that a full scan is cheap.
type sliceIterator struct {
	ids []id.Id
	pos int
}

func (it *sliceIterator) Next() bool {
	it.pos++
	return it.pos < len(it.ids)
}

func (it *sliceIterator) Id() id.Id {
	return it.ids[it.pos]
}

func (it *sliceIterator) Err() error { return nil }
