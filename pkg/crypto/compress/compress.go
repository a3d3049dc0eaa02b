// Package compress implements the reversible byte compression stage of the
// chunk pipeline.
package compress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Algorithm tags which compression variant produced a CompressedChunk,
// stored alongside the bytes so a future reader can dispatch without
// external configuration.
type Algorithm string

const (
	// None stores the original bytes unchanged.
	None Algorithm = "none"
	// Zstd is the default compressor.
	Zstd Algorithm = "zstd"
)

var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(fmt.Sprintf("compress: failed to build zstd encoder: %v", err))
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("compress: failed to build zstd decoder: %v", err))
	}
}

// Compress compresses b using algo. For Zstd, if the compressed form would
// not shrink the input, the original bytes are stored under None instead.
func Compress(algo Algorithm, b []byte) (Algorithm, []byte, error) {
	switch algo {
	case None:
		return None, b, nil
	case Zstd, "":
		compressed := encoder.EncodeAll(b, make([]byte, 0, len(b)))
		if len(compressed) >= len(b) {
			return None, b, nil
		}
		return Zstd, compressed, nil
	default:
		return "", nil, fmt.Errorf("compress: unknown algorithm %q", algo)
	}
}

// Decompress reverses Compress given the tag it was stored with.
func Decompress(algo Algorithm, b []byte) ([]byte, error) {
	switch algo {
	case None, "":
		return b, nil
	case Zstd:
		out, err := decoder.DecodeAll(b, nil)
		if err != nil {
			return nil, fmt.Errorf("compress: zstd decode: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("compress: unknown algorithm %q", algo)
	}
}
