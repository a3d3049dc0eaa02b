package obj

import (
	"fmt"

	cborcodec "github.com/dechst-go/dechst/pkg/codec/cbor"
	"github.com/dechst-go/dechst/pkg/crypto/compress"
	"github.com/dechst-go/dechst/pkg/crypto/encrypt"
	"github.com/dechst-go/dechst/pkg/crypto/verify"
)

// CompressedChunk, EncryptedChunk, and TaggedChunk are the three stages a
// chunk's plaintext bytes pass through on the way to disk:
// compress -> encrypt -> tag. Each stage's struct carries the algorithm it
// used alongside its output bytes so the reverse chain needs no external
// configuration to undo it, only the repository Key.

// CompressedChunk holds the compressed form of a chunk's plaintext.
type CompressedChunk struct {
	Bytes       []byte             `cbor:"bytes"`
	Compression compress.Algorithm `cbor:"compression"`
}

// CompressChunk compresses bytes under algo, recording whichever algorithm
// was actually used (Compress falls back to None for incompressible input).
func CompressChunk(algo compress.Algorithm, bytes []byte) (CompressedChunk, error) {
	used, out, err := compress.Compress(algo, bytes)
	if err != nil {
		return CompressedChunk{}, fmt.Errorf("obj: compress chunk: %w", err)
	}
	return CompressedChunk{Bytes: out, Compression: used}, nil
}

// Decompress reverses CompressChunk.
func (c CompressedChunk) Decompress() ([]byte, error) {
	out, err := compress.Decompress(c.Compression, c.Bytes)
	if err != nil {
		return nil, fmt.Errorf("obj: decompress chunk: %w", err)
	}
	return out, nil
}

// Encrypt serializes c and encrypts the serialized bytes under key's
// encrypt sub-key, producing the next stage of the pipeline.
func (c CompressedChunk) Encrypt(key Key, algo encrypt.Algorithm) (EncryptedChunk, error) {
	raw, err := cborcodec.Marshal(c)
	if err != nil {
		return EncryptedChunk{}, fmt.Errorf("obj: serialize compressed chunk: %w", err)
	}
	nonce, ciphertext, err := encrypt.Encrypt(algo, key.Bytes.EncryptKey, raw)
	if err != nil {
		return EncryptedChunk{}, fmt.Errorf("obj: encrypt chunk: %w", err)
	}
	return EncryptedChunk{Bytes: ciphertext, Nonce: nonce, Encryption: algo}, nil
}

// EncryptedChunk holds the ciphertext of a serialized CompressedChunk.
type EncryptedChunk struct {
	Bytes      []byte            `cbor:"bytes"`
	Nonce      []byte            `cbor:"nonce"`
	Encryption encrypt.Algorithm `cbor:"encryption"`
}

// Decrypt reverses Encrypt, deserializing the recovered plaintext back into
// a CompressedChunk.
func (c EncryptedChunk) Decrypt(key Key) (CompressedChunk, error) {
	raw, err := encrypt.Decrypt(c.Encryption, key.Bytes.EncryptKey, c.Nonce, c.Bytes)
	if err != nil {
		return CompressedChunk{}, fmt.Errorf("obj: decrypt chunk: %w", err)
	}
	var out CompressedChunk
	if err := cborcodec.Unmarshal(raw, &out); err != nil {
		return CompressedChunk{}, fmt.Errorf("obj: deserialize compressed chunk: %w", err)
	}
	return out, nil
}

// Tag serializes c and computes a MAC over the serialized bytes under key's
// verify sub-key, producing the on-disk form of a processed chunk.
func (c EncryptedChunk) Tag(key Key, algo verify.Algorithm) (TaggedChunk, error) {
	raw, err := cborcodec.Marshal(c)
	if err != nil {
		return TaggedChunk{}, fmt.Errorf("obj: serialize encrypted chunk: %w", err)
	}
	tag, err := verify.Tag(algo, key.Bytes.VerifyKey, raw)
	if err != nil {
		return TaggedChunk{}, fmt.Errorf("obj: tag chunk: %w", err)
	}
	return TaggedChunk{Bytes: raw, Tag: tag, Verifier: algo}, nil
}

// TaggedChunk is the fully processed, on-disk form of a chunk: the encoded
// EncryptedChunk bytes plus a MAC over them.
type TaggedChunk struct {
	Bytes    []byte           `cbor:"bytes"`
	Tag      []byte           `cbor:"tag"`
	Verifier verify.Algorithm `cbor:"verifier"`
}

// Verify recomputes and compares the MAC, then deserializes the verified
// bytes back into an EncryptedChunk. It must be called before Decrypt: the
// pipeline never decrypts bytes that have not first been authenticated.
func (c TaggedChunk) Verify(key Key) (EncryptedChunk, error) {
	if err := verify.Verify(c.Verifier, key.Bytes.VerifyKey, c.Tag, c.Bytes); err != nil {
		return EncryptedChunk{}, fmt.Errorf("obj: verify chunk: %w", err)
	}
	var out EncryptedChunk
	if err := cborcodec.Unmarshal(c.Bytes, &out); err != nil {
		return EncryptedChunk{}, fmt.Errorf("obj: deserialize encrypted chunk: %w", err)
	}
	return out, nil
}
