// Package keystore implements the password-derived wrapping of a
// repository's master Key. pkg/repo drives this package during the
// open -> decrypted transition.
package keystore

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	cborcodec "github.com/dechst-go/dechst/pkg/codec/cbor"
	"github.com/dechst-go/dechst/pkg/crypto/encrypt"
	"github.com/dechst-go/dechst/pkg/obj"
)

// ErrPasswordMismatch is returned by Unwrap when the Argon2id-derived key
// does not unwrap the stored EncryptedKey.
var ErrPasswordMismatch = errors.New("keystore: password mismatch")

// WrapKeySize is the length of the symmetric key Argon2id derives to wrap
// and unwrap a serialized Key, matching encrypt.KeySize.
const WrapKeySize = encrypt.KeySize

// Password holds a user passphrase in a wipeable buffer that refuses to
// render itself through fmt, so a stray log line never leaks it.
type Password struct {
	b []byte
}

// NewPassword wraps pw. The caller must not reuse pw afterwards; Zeroize
// wipes it in place.
func NewPassword(pw []byte) *Password {
	return &Password{b: pw}
}

// Bytes exposes the raw passphrase for key derivation.
func (p *Password) Bytes() []byte { return p.b }

// Zeroize wipes the passphrase.
func (p *Password) Zeroize() {
	wipe(p.b)
	p.b = nil
}

// String implements fmt.Stringer with a redacted constant.
func (p *Password) String() string { return "<redacted>" }

// GoString implements fmt.GoStringer with a redacted constant, covering %#v.
func (p *Password) GoString() string { return "<redacted>" }

// Wrap produces a fresh EncryptedKey from key, wrapping its serialized form
// under a key derived from userPassword by Argon2id. A new random 32-byte
// salt is drawn for every call, so wrapping the same Key twice with the
// same password yields two different EncryptedKey objects.
func Wrap(key obj.Key, opts obj.EncryptOptions, algo encrypt.Algorithm, userPassword []byte) (obj.EncryptedKey, error) {
	var salt [32]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return obj.EncryptedKey{}, fmt.Errorf("keystore: generate salt: %w", err)
	}

	wrapKey := deriveWrapKey(opts, salt, userPassword)
	defer wipe(wrapKey)

	raw, err := cborcodec.Marshal(key)
	if err != nil {
		return obj.EncryptedKey{}, fmt.Errorf("keystore: serialize key: %w", err)
	}
	defer wipe(raw)

	nonce, ciphertext, err := encrypt.Encrypt(algo, wrapKey, raw)
	if err != nil {
		return obj.EncryptedKey{}, fmt.Errorf("keystore: wrap key: %w", err)
	}

	return obj.EncryptedKey{
		EncryptedBytes: append(nonce, ciphertext...),
		Salt:           salt,
		Opts:           opts,
		Encryption:     algo,
	}, nil
}

// Unwrap reverses Wrap given the same userPassword, returning
// ErrPasswordMismatch if the derived key does not decode to a valid Key.
// Because the wrapping cipher is unauthenticated (authentication is the
// verifier stage's job, and EncryptedKey does not carry a tag), a wrong
// password decrypts to garbage bytes; CBOR decoding failure is the
// observable signal of a mismatch.
func Unwrap(ek obj.EncryptedKey, userPassword []byte) (obj.Key, error) {
	if len(ek.EncryptedBytes) < encrypt.NonceSize {
		return obj.Key{}, fmt.Errorf("keystore: encrypted key too short")
	}
	nonce := ek.EncryptedBytes[:encrypt.NonceSize]
	ciphertext := ek.EncryptedBytes[encrypt.NonceSize:]

	wrapKey := deriveWrapKey(ek.Opts, ek.Salt, userPassword)
	defer wipe(wrapKey)

	plaintext, err := encrypt.Decrypt(ek.Encryption, wrapKey, nonce, ciphertext)
	if err != nil {
		return obj.Key{}, fmt.Errorf("keystore: decrypt wrapped key: %w", err)
	}
	defer wipe(plaintext)

	var key obj.Key
	if err := cborcodec.Unmarshal(plaintext, &key); err != nil {
		return obj.Key{}, ErrPasswordMismatch
	}
	return key, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// TryUnencrypted parses raw as a Key directly, used when the repository
// was initialized with DECHST_NO_PASSWORD.
func TryUnencrypted(raw []byte) (obj.Key, error) {
	var key obj.Key
	if err := cborcodec.Unmarshal(raw, &key); err != nil {
		return obj.Key{}, fmt.Errorf("keystore: parse unencrypted key: %w", err)
	}
	return key, nil
}

// deriveWrapKey runs Argon2id over (userPassword, hex(salt)), producing a
// 32-byte symmetric wrap key.
func deriveWrapKey(opts obj.EncryptOptions, salt [32]byte, userPassword []byte) []byte {
	saltHex := []byte(hex.EncodeToString(salt[:]))
	return argon2.IDKey(userPassword, saltHex, opts.TimeCost, opts.MemCost, uint8(opts.ParallelCost), WrapKeySize)
}
