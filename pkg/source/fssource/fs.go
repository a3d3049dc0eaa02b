// Package fssource implements source.Source over a filesystem directory
// tree.
package fssource

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dechst-go/dechst/pkg/obj/tree"
	"github.com/dechst-go/dechst/pkg/source"
	"github.com/dechst-go/dechst/pkg/source/fsmeta"
)

// Item is a path relative to the FsSource's root, using "/" as the segment
// separator regardless of host platform.
type Item struct {
	rel   string
	isDir bool
}

// CanDescend reports whether item names a directory.
func (i Item) CanDescend() bool { return i.isDir }

// FsSource walks the directory tree rooted at root.
type FsSource struct {
	root string
}

// New returns an FsSource rooted at root, which must exist and name a
// directory.
func New(root string) (*FsSource, error) {
	isDir, err := fsmeta.IsDir(root)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, fmt.Errorf("fssource: root %q is not a directory", root)
	}
	return &FsSource{root: filepath.Clean(root)}, nil
}

func (s *FsSource) resolve(item Item) (string, error) {
	if item.rel == "" {
		return s.root, nil
	}
	// Items are produced by Iter from directory entry names and can never
	// contain "..", but resolve is the single choke point every path goes
	// through, so the escape guard lives here.
	rel := filepath.FromSlash(item.rel)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("fssource: item %q escapes the source root", item.rel)
	}
	return filepath.Join(s.root, rel), nil
}

// Iter lists the immediate children of parent, or the root's top-level
// entries when parent is nil.
func (s *FsSource) Iter(parent source.Item) (source.Iter, error) {
	var base Item
	if parent != nil {
		p, ok := parent.(Item)
		if !ok {
			return nil, fmt.Errorf("fssource: Iter called with foreign Item type %T", parent)
		}
		if !p.isDir {
			return nil, fmt.Errorf("fssource: Iter called on non-directory item %q", p.rel)
		}
		base = p
	}

	dirPath, err := s.resolve(base)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("fssource: read dir %q: %w", dirPath, err)
	}

	items := make([]Item, 0, len(entries))
	for _, de := range entries {
		rel := de.Name()
		if base.rel != "" {
			rel = base.rel + "/" + rel
		}
		isDir := de.IsDir()
		if de.Type()&os.ModeSymlink != 0 {
			// A symlink never counts as descendable, even if it resolves to
			// a directory: it is stored as a symlink node, not walked through.
			isDir = false
		}
		items = append(items, Item{rel: rel, isDir: isDir})
	}

	return &sliceIter{items: items, i: -1}, nil
}

// Read opens item for reading. item must not be a directory.
func (s *FsSource) Read(item source.Item) (io.ReadCloser, error) {
	it, ok := item.(Item)
	if !ok {
		return nil, fmt.Errorf("fssource: Read called with foreign Item type %T", item)
	}
	path, err := s.resolve(it)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fssource: open %q: %w", it.rel, err)
	}
	return f, nil
}

// Node captures item's metadata and kind. The returned Node's Name is set
// to item's base name; TreeBuilder keys the enclosing directory separately.
func (s *FsSource) Node(item source.Item) (tree.Node, error) {
	it, ok := item.(Item)
	if !ok {
		return tree.Node{}, fmt.Errorf("fssource: Node called with foreign Item type %T", item)
	}

	path, err := s.resolve(it)
	if err != nil {
		return tree.Node{}, err
	}
	meta, kind, device, err := fsmeta.Lstat(path)
	if err != nil {
		return tree.Node{}, err
	}

	nodeKind, err := nodeKindFor(path, kind, device)
	if err != nil {
		return tree.Node{}, err
	}

	return tree.Node{
		Name: filepath.Base(path),
		Kind: nodeKind,
		Meta: meta,
	}, nil
}

func nodeKindFor(path string, kind tree.Kind, device uint64) (tree.NodeKind, error) {
	switch kind {
	case tree.KindFile:
		return tree.FileKind(), nil
	case tree.KindDirectory:
		return tree.DirKind(), nil
	case tree.KindSymlink:
		target, err := os.Readlink(path)
		if err != nil {
			return tree.NodeKind{}, fmt.Errorf("fssource: readlink %q: %w", path, err)
		}
		return tree.SymlinkKind(target, nil), nil
	case tree.KindDevice:
		return tree.DeviceKind(device), nil
	case tree.KindCharacterDevice:
		return tree.CharacterDeviceKind(device), nil
	case tree.KindFifo:
		return tree.FifoKind(), nil
	case tree.KindSocket:
		return tree.SocketKind(), nil
	default:
		return tree.NodeKind{}, fmt.Errorf("fssource: unhandled node kind %q", kind)
	}
}

// sliceIter adapts a pre-listed directory entry slice to source.Iter.
type sliceIter struct {
	items []Item
	i     int
}

func (it *sliceIter) Next() bool {
	it.i++
	return it.i < len(it.items)
}

func (it *sliceIter) Item() source.Item { return it.items[it.i] }

func (it *sliceIter) Err() error { return nil }
