// Package pipeline composes the compress/encrypt/tag chunk stages
// (pkg/obj's CompressedChunk/EncryptedChunk/TaggedChunk) into the single
// Process/Unprocess round trip every object written to a repository goes
// through.
package pipeline

import (
	"fmt"

	cborcodec "github.com/dechst-go/dechst/pkg/codec/cbor"
	"github.com/dechst-go/dechst/pkg/obj"
)

// ChunkPipeline pipelines raw bytes through a fixed set of algorithms under
// a single repository Key. It holds no other state and is safe for
// concurrent use by multiple goroutines.
type ChunkPipeline struct {
	Key  obj.Key
	Opts obj.ProcessOptions
}

// New builds a ChunkPipeline from a decrypted repository Key and its
// Config's ProcessOptions.
func New(key obj.Key, opts obj.ProcessOptions) ChunkPipeline {
	return ChunkPipeline{Key: key, Opts: opts}
}

// Process runs the forward chain (compress -> encrypt -> tag) over bytes
// and returns the canonical CBOR encoding of the resulting TaggedChunk,
// ready to be written to a Pack's blob region.
func (p ChunkPipeline) Process(bytes []byte) ([]byte, error) {
	compressed, err := obj.CompressChunk(p.Opts.Compression, bytes)
	if err != nil {
		return nil, err
	}
	encrypted, err := compressed.Encrypt(p.Key, p.Opts.Encryption)
	if err != nil {
		return nil, err
	}
	tagged, err := encrypted.Tag(p.Key, p.Opts.Verifier)
	if err != nil {
		return nil, err
	}
	out, err := cborcodec.Marshal(tagged)
	if err != nil {
		return nil, fmt.Errorf("pipeline: serialize tagged chunk: %w", err)
	}
	return out, nil
}

// Unprocess reverses Process: it decodes bytes as a TaggedChunk, then runs
// the backward chain (verify -> decrypt -> decompress), returning the
// original plaintext. Verification always happens before decryption: the
// pipeline never decrypts bytes whose authenticity it has not checked.
func (p ChunkPipeline) Unprocess(bytes []byte) ([]byte, error) {
	var tagged obj.TaggedChunk
	if err := cborcodec.Unmarshal(bytes, &tagged); err != nil {
		return nil, fmt.Errorf("pipeline: deserialize tagged chunk: %w", err)
	}
	encrypted, err := tagged.Verify(p.Key)
	if err != nil {
		return nil, err
	}
	compressed, err := encrypted.Decrypt(p.Key)
	if err != nil {
		return nil, err
	}
	out, err := compressed.Decompress()
	if err != nil {
		return nil, err
	}
	return out, nil
}
