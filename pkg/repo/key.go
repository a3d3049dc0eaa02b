package repo

import (
	"fmt"

	"github.com/dechst-go/dechst/pkg/backend"
	cborcodec "github.com/dechst-go/dechst/pkg/codec/cbor"
	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/keystore"
	"github.com/dechst-go/dechst/pkg/obj"
)

// KeyExists requires key: Shared|Exclusive.
func (l *LockedRepo) KeyExists(keyID id.Id) error {
	if err := requireAtLeast(l.marker.Key, AccessShared); err != nil {
		return err
	}
	return l.backend.Exists(obj.KindKey, keyID)
}

// Keys lists every EncryptedKey id. Requires key: Shared|Exclusive.
func (l *LockedRepo) Keys() (backend.Iterator, error) {
	if err := requireAtLeast(l.marker.Key, AccessShared); err != nil {
		return nil, err
	}
	return l.backend.Iter(obj.KindKey)
}

// KeysFind resolves several hex prefixes against the repository's key ids.
func (l *LockedRepo) KeysFind(prefixes []string) ([]backend.FindResult, error) {
	if err := requireAtLeast(l.marker.Key, AccessShared); err != nil {
		return nil, err
	}
	return backend.FindIDs(l.backend, obj.KindKey, prefixes)
}

// KeyRead reads and unwraps the EncryptedKey stored under keyID using
// userPassword, for inspecting a key other than the one this session
// unlocked with (e.g. auditing key rotation). Requires key: Shared|Exclusive.
func (l *LockedRepo) KeyRead(keyID id.Id, userPassword []byte) (obj.Key, error) {
	if err := requireAtLeast(l.marker.Key, AccessShared); err != nil {
		return obj.Key{}, err
	}
	raw, err := l.backend.ReadAll(obj.KindKey, keyID)
	if err != nil {
		return obj.Key{}, fmt.Errorf("repo: read key %s: %w", keyID, err)
	}
	var ek obj.EncryptedKey
	if err := cborcodec.Unmarshal(raw, &ek); err != nil {
		return obj.Key{}, fmt.Errorf("repo: decode key %s: %w", keyID, err)
	}
	return keystore.Unwrap(ek, userPassword)
}

// KeyWrite wraps key under userPassword and writes it as a new EncryptedKey
// object, implementing key rotation as an append-only set of wrappers.
// Requires key: Exclusive.
func (l *LockedRepo) KeyWrite(key obj.Key, opts obj.EncryptOptions, userPassword []byte) (id.Id, error) {
	if err := requireAtLeast(l.marker.Key, AccessExclusive); err != nil {
		return id.Id{}, err
	}
	ek, err := keystore.Wrap(key, opts, l.config.Process.Encryption, userPassword)
	if err != nil {
		return id.Id{}, err
	}
	raw, err := cborcodec.Marshal(ek)
	if err != nil {
		return id.Id{}, fmt.Errorf("repo: serialize key: %w", err)
	}
	keyID := l.identify(raw)
	if err := l.backend.WriteAll(obj.KindKey, keyID, raw); err != nil {
		return id.Id{}, fmt.Errorf("repo: write key %s: %w", keyID, err)
	}
	return keyID, nil
}
