// Package verify implements the keyed MAC stage that authenticates the
// ciphertext of every pipelined object. The pipeline always tags the
// ciphertext, never the plaintext (encrypt-then-MAC).
package verify

import (
	"crypto/subtle"
	"fmt"

	"lukechampine.com/blake3"
)

// Algorithm tags which MAC produced a tag.
type Algorithm string

// Blake3 is the default and only verifier algorithm.
const Blake3 Algorithm = "blake3"

// TagSize is the length of the produced MAC tag.
const TagSize = 32

// ErrVerificationFailed is returned by Verify when the provided tag does not
// match byte-for-byte.
var ErrVerificationFailed = fmt.Errorf("verify: verification failed")

// Tag computes the keyed MAC of ciphertext under key (padded/truncated to
// TagSize).
func Tag(algo Algorithm, key, ciphertext []byte) ([]byte, error) {
	if algo != Blake3 && algo != "" {
		return nil, fmt.Errorf("verify: unknown algorithm %q", algo)
	}
	var k [TagSize]byte
	copy(k[:], key)
	h := blake3.New(TagSize, k[:])
	h.Write(ciphertext)
	return h.Sum(nil), nil
}

// Verify recomputes the MAC of ciphertext and compares it in constant time
// against tag, failing with ErrVerificationFailed on any mismatch.
func Verify(algo Algorithm, key, tag, ciphertext []byte) error {
	want, err := Tag(algo, key, ciphertext)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(want, tag) != 1 {
		return ErrVerificationFailed
	}
	return nil
}
