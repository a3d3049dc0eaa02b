// Package identify implements the keyed content hash used to address every
// object in the repository.
package identify

import (
	"fmt"

	"lukechampine.com/blake3"

	"github.com/dechst-go/dechst/pkg/id"
)

// Algorithm tags an identifier variant, carried alongside ProcessOptions so
// future readers can dispatch without external configuration.
type Algorithm string

// Blake3 is the default and only identifier algorithm.
const Blake3 Algorithm = "blake3"

// KeySize is the length the sub-key is padded/truncated to before hashing.
const KeySize = 32

// Identify computes the keyed content id of data. The key is padded with
// zero bytes (or truncated) to exactly KeySize bytes, matching
// lukechampine.com/blake3's keyed-mode contract.
func Identify(key []byte, data []byte) id.Id {
	var k [KeySize]byte
	copy(k[:], key)
	h := blake3.New(id.Width, k[:])
	h.Write(data)
	return id.FromBytes(h.Sum(nil))
}

// New returns the Identify function bound to algo, erroring for any variant
// other than Blake3 so ProcessOptions round-trips can reject unknown tags.
func New(algo Algorithm, key []byte) (func([]byte) id.Id, error) {
	switch algo {
	case Blake3, "":
		return func(data []byte) id.Id { return Identify(key, data) }, nil
	default:
		return nil, fmt.Errorf("identify: unknown algorithm %q", algo)
	}
}
