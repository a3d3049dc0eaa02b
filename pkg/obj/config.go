package obj

import (
	"github.com/dechst-go/dechst/pkg/chunker"
	"github.com/dechst-go/dechst/pkg/crypto/compress"
	"github.com/dechst-go/dechst/pkg/crypto/encrypt"
	"github.com/dechst-go/dechst/pkg/crypto/identify"
	"github.com/dechst-go/dechst/pkg/crypto/verify"
	"github.com/dechst-go/dechst/pkg/id"
)

// ProcessOptions selects the algorithms and chunking parameters used by every
// ChunkPipeline stage in a repository. It is written once into Config at
// repository init time and never changes afterward: mixing pipeline
// algorithms within a single repository would make existing objects
// unreadable.
type ProcessOptions struct {
	Chunker     chunker.Params     `cbor:"chunker"`
	Identifier  identify.Algorithm `cbor:"identifier"`
	Compression compress.Algorithm `cbor:"compression"`
	Encryption  encrypt.Algorithm  `cbor:"encryption"`
	Verifier    verify.Algorithm   `cbor:"verifier"`
}

// DefaultProcessOptions returns the pipeline configuration used by `dechst
// init` when the caller does not override it: FastCDC with the published
// reference sizes, BLAKE3 identification, zstd compression, ChaCha20
// encryption, and a BLAKE3 MAC.
func DefaultProcessOptions() ProcessOptions {
	return ProcessOptions{
		Chunker: chunker.Params{
			MinSize: chunker.DefaultMinSize,
			AvgSize: chunker.DefaultAvgSize,
			MaxSize: chunker.DefaultMaxSize,
		},
		Identifier:  identify.Blake3,
		Compression: compress.Zstd,
		Encryption:  encrypt.ChaCha20,
		Verifier:    verify.Blake3,
	}
}

// Config is the first object ever written to a repository. It fixes the
// repository's identity and its pipeline configuration for the lifetime of
// the repository.
type Config struct {
	Version uint32         `cbor:"version"`
	ID      id.Id          `cbor:"id"`
	Process ProcessOptions `cbor:"process"`
}

// NewConfig builds a fresh Config with a random repository Id and version 1.
func NewConfig(process ProcessOptions) (Config, error) {
	repoID, err := id.Random()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Version: 1,
		ID:      repoID,
		Process: process,
	}, nil
}

// Kind implements Object.
func (Config) Kind() Kind { return KindConfig }
