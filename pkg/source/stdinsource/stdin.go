// Package stdinsource implements source.Source over the process's standard
// input: a single, non-descendable file item named "stdin".
package stdinsource

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/dechst-go/dechst/pkg/obj/tree"
	"github.com/dechst-go/dechst/pkg/source"
)

// Item is the sole item StdinSource ever produces.
type Item struct{}

// CanDescend always reports false: stdin has no children.
func (Item) CanDescend() bool { return false }

// StdinSource treats the process's stdin as a single unnamed file.
type StdinSource struct{}

// New returns a StdinSource.
func New() *StdinSource { return &StdinSource{} }

// Iter yields Item once when called with a nil parent, and an error if
// called with any other parent (Item.CanDescend is always false).
func (s *StdinSource) Iter(parent source.Item) (source.Iter, error) {
	if parent != nil {
		return nil, fmt.Errorf("stdinsource: cannot descend into %v", parent)
	}
	return &onceIter{}, nil
}

// Read returns the process's stdin, wrapped for buffered reading.
func (s *StdinSource) Read(item source.Item) (io.ReadCloser, error) {
	if _, ok := item.(Item); !ok {
		return nil, fmt.Errorf("stdinsource: Read called with foreign Item type %T", item)
	}
	return io.NopCloser(bufio.NewReader(os.Stdin)), nil
}

// Node returns a file node named "stdin" with zero-value metadata: stdin
// has no filesystem size, mode, or timestamps to report.
func (s *StdinSource) Node(item source.Item) (tree.Node, error) {
	if _, ok := item.(Item); !ok {
		return tree.Node{}, fmt.Errorf("stdinsource: Node called with foreign Item type %T", item)
	}
	return tree.Node{
		Name: "stdin",
		Kind: tree.FileKind(),
	}, nil
}

type onceIter struct {
	done bool
}

func (it *onceIter) Next() bool {
	if it.done {
		return false
	}
	it.done = true
	return true
}

func (it *onceIter) Item() source.Item { return Item{} }

func (it *onceIter) Err() error { return nil }
