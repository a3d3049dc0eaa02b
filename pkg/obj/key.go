package obj

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/dechst-go/dechst/pkg/crypto/encrypt"
)

// KeyBytes holds the four independent 32-byte sub-keys a repository uses:
// one each for encryption, MAC verification, content identification, and
// chunking. Keeping them independent means compromising one stage's key
// never weakens the others. ChunkKey is generated and stored with the
// others, but the chunker does not read it: its gear table is fixed.
type KeyBytes struct {
	EncryptKey  []byte `cbor:"encrypt_key"`
	VerifyKey   []byte `cbor:"verify_key"`
	IdentifyKey []byte `cbor:"identify_key"`
	ChunkKey    []byte `cbor:"chunk_key"`
}

// RandomKeyBytes draws four independent random sub-keys, each of the given
// length, from a CSPRNG.
func RandomKeyBytes(length int) (KeyBytes, error) {
	gen := func() ([]byte, error) {
		b := make([]byte, length)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("obj: generate key bytes: %w", err)
		}
		return b, nil
	}
	var out KeyBytes
	var err error
	if out.EncryptKey, err = gen(); err != nil {
		return KeyBytes{}, err
	}
	if out.VerifyKey, err = gen(); err != nil {
		return KeyBytes{}, err
	}
	if out.IdentifyKey, err = gen(); err != nil {
		return KeyBytes{}, err
	}
	if out.ChunkKey, err = gen(); err != nil {
		return KeyBytes{}, err
	}
	return out, nil
}

// Zeroize overwrites every sub-key with zero bytes. Key material must not
// outlive the session that recovered it, and Go has no destructor to hang
// the wipe on, so holders call this explicitly when the repository session
// ends.
func (b *KeyBytes) Zeroize() {
	wipe(b.EncryptKey)
	wipe(b.VerifyKey)
	wipe(b.IdentifyKey)
	wipe(b.ChunkKey)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// KeyMeta records who created a Key and when.
type KeyMeta struct {
	User    User      `cbor:"user"`
	Created time.Time `cbor:"created"`
}

// NewKeyMeta stamps the current user and time.
func NewKeyMeta() KeyMeta {
	return KeyMeta{User: CurrentUser(), Created: time.Now().UTC()}
}

// Key is the decrypted repository master key. A repository initialized with
// a password stores only its EncryptedKey wrapper (pkg/keystore); one
// initialized without a password stores the Key itself as plain CBOR.
type Key struct {
	Meta  KeyMeta  `cbor:"meta"`
	Bytes KeyBytes `cbor:"bytes"`
}

// Zeroize wipes the key's material.
func (k *Key) Zeroize() {
	k.Bytes.Zeroize()
}

// RandomKey generates a fresh Key with 32-byte sub-keys.
func RandomKey() (Key, error) {
	bytes, err := RandomKeyBytes(32)
	if err != nil {
		return Key{}, err
	}
	return Key{Meta: NewKeyMeta(), Bytes: bytes}, nil
}

// EncryptOptions are the Argon2id parameters used to derive a wrapping key
// from a user password. They are stored alongside each EncryptedKey so a
// future change to the defaults does not break existing wrappers.
type EncryptOptions struct {
	MemCost      uint32 `cbor:"mem_cost"`
	TimeCost     uint32 `cbor:"time_cost"`
	ParallelCost uint32 `cbor:"parallel_cost"`
}

// DefaultEncryptOptions returns golang.org/x/crypto/argon2's documented
// interactive-use recommendation: 64 MiB of memory, 3 passes, 4-way
// parallelism.
func DefaultEncryptOptions() EncryptOptions {
	return EncryptOptions{MemCost: 64 * 1024, TimeCost: 3, ParallelCost: 4}
}

// EncryptedKey is the on-disk, password-wrapped form of a Key. pkg/keystore
// implements the Argon2id wrapping and unwrapping.
type EncryptedKey struct {
	EncryptedBytes []byte            `cbor:"encrypted_bytes"`
	Salt           [32]byte          `cbor:"salt"`
	Opts           EncryptOptions    `cbor:"opts"`
	Encryption     encrypt.Algorithm `cbor:"encryption"`
}

// Kind implements Object.
func (EncryptedKey) Kind() Kind { return KindKey }
