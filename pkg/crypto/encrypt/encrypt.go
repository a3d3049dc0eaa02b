// Package encrypt implements the symmetric stream cipher stage of the chunk
// pipeline.
package encrypt

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// Algorithm tags which cipher produced an EncryptedChunk.
type Algorithm string

// ChaCha20 is the default and only encryption algorithm.
const ChaCha20 Algorithm = "chacha20"

// KeySize and NonceSize are ChaCha20's required sizes.
const (
	KeySize   = chacha20.KeySize
	NonceSize = chacha20.NonceSize
)

// Encrypt encrypts plaintext under key (padded/truncated to KeySize) with a
// freshly generated nonce, returning the nonce alongside the ciphertext so
// it can be stored in the EncryptedChunk record. A (key, nonce) pair is
// never reused across calls because the nonce is drawn fresh from a CSPRNG
// every time.
func Encrypt(algo Algorithm, key, plaintext []byte) (nonce, ciphertext []byte, err error) {
	if algo != ChaCha20 && algo != "" {
		return nil, nil, fmt.Errorf("encrypt: unknown algorithm %q", algo)
	}
	k := paddedKey(key)
	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("encrypt: generate nonce: %w", err)
	}
	cipher, err := chacha20.NewUnauthenticatedCipher(k, nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("encrypt: init cipher: %w", err)
	}
	ciphertext = make([]byte, len(plaintext))
	cipher.XORKeyStream(ciphertext, plaintext)
	return nonce, ciphertext, nil
}

// Decrypt reverses Encrypt given the stored nonce and ciphertext.
func Decrypt(algo Algorithm, key, nonce, ciphertext []byte) ([]byte, error) {
	if algo != ChaCha20 && algo != "" {
		return nil, fmt.Errorf("encrypt: unknown algorithm %q", algo)
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("encrypt: invalid nonce size %d, want %d", len(nonce), NonceSize)
	}
	k := paddedKey(key)
	cipher, err := chacha20.NewUnauthenticatedCipher(k, nonce)
	if err != nil {
		return nil, fmt.Errorf("encrypt: init cipher: %w", err)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.XORKeyStream(plaintext, ciphertext)
	return plaintext, nil
}

func paddedKey(key []byte) []byte {
	k := make([]byte, KeySize)
	copy(k, key)
	return k
}
