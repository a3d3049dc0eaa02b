// Package repo implements the repository state machine: Open -> Decrypted
// -> Locked{marker}, with per-kind access gating and a lock-compatibility
// check serializing concurrent sessions.
package repo

import (
	"fmt"
	"os"
	"time"

	"github.com/dechst-go/dechst/pkg/backend"
	cborcodec "github.com/dechst-go/dechst/pkg/codec/cbor"
	"github.com/dechst-go/dechst/pkg/crypto/identify"
	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/keystore"
	"github.com/dechst-go/dechst/pkg/obj"
	"github.com/dechst-go/dechst/pkg/pipeline"
)

// Repo is a repository whose backend has been opened and verified, but
// whose master Key has not yet been recovered. It is the Open state.
type Repo struct {
	backend backend.Backend
}

// Open verifies b's layout and returns a Repo in the Open state.
func Open(b backend.Backend) (*Repo, error) {
	if err := b.Verify(); err != nil {
		return nil, fmt.Errorf("repo: open: %w", err)
	}
	return &Repo{backend: b}, nil
}

// Keys lists every EncryptedKey id stored in the repository.
func (r *Repo) Keys() (backend.Iterator, error) {
	return r.backend.Iter(obj.KindKey)
}

// FindKeyID resolves a hex id prefix against the repository's stored keys.
func (r *Repo) FindKeyID(prefix string) (backend.FindResult, error) {
	return backend.FindID(r.backend, obj.KindKey, prefix)
}

func (r *Repo) readEncryptedKey(keyID id.Id) (obj.EncryptedKey, error) {
	raw, err := r.backend.ReadAll(obj.KindKey, keyID)
	if err != nil {
		return obj.EncryptedKey{}, fmt.Errorf("repo: read key %s: %w", keyID, err)
	}
	var ek obj.EncryptedKey
	if err := cborcodec.Unmarshal(raw, &ek); err != nil {
		return obj.EncryptedKey{}, fmt.Errorf("repo: decode key %s: %w", keyID, err)
	}
	return ek, nil
}

// TryUnencrypted recovers the master Key directly from keyID's stored
// bytes, for repositories initialized with DECHST_NO_PASSWORD.
func (r *Repo) TryUnencrypted(keyID id.Id) (*DecryptedRepo, error) {
	raw, err := r.backend.ReadAll(obj.KindKey, keyID)
	if err != nil {
		return nil, fmt.Errorf("repo: read key %s: %w", keyID, err)
	}
	key, err := keystore.TryUnencrypted(raw)
	if err != nil {
		return nil, err
	}
	return r.toDecrypted(key)
}

// Decrypt recovers the master Key stored under keyID by unwrapping it with
// password.
func (r *Repo) Decrypt(keyID id.Id, password []byte) (*DecryptedRepo, error) {
	ek, err := r.readEncryptedKey(keyID)
	if err != nil {
		return nil, err
	}
	key, err := keystore.Unwrap(ek, password)
	if err != nil {
		return nil, err
	}
	return r.toDecrypted(key)
}

// DecryptAny tries every stored key against password in turn, succeeding
// on the first one that unwraps. When at least one key was tried and none
// unwrapped, the failure is keystore.ErrPasswordMismatch; a repository
// holding no keys at all reports ErrNoSuchKey instead.
func (r *Repo) DecryptAny(password []byte) (*DecryptedRepo, error) {
	it, err := r.Keys()
	if err != nil {
		return nil, fmt.Errorf("repo: list keys: %w", err)
	}
	tried := 0
	for it.Next() {
		tried++
		dr, err := r.Decrypt(it.Id(), password)
		if err == nil {
			return dr, nil
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("repo: list keys: %w", err)
	}
	if tried > 0 {
		return nil, keystore.ErrPasswordMismatch
	}
	return nil, ErrNoSuchKey
}

// toDecrypted reads and unprocesses the Config object under the freshly
// recovered key. The backward pipeline path is self-describing (every stage
// records the algorithm it used), so only the Key is needed here; the
// ProcessOptions recovered from Config then configure the forward path.
func (r *Repo) toDecrypted(key obj.Key) (*DecryptedRepo, error) {
	raw, err := r.backend.ReadAll(obj.KindConfig, id.Zero)
	if err != nil {
		return nil, fmt.Errorf("repo: read config: %w", err)
	}
	plain, err := pipeline.New(key, obj.ProcessOptions{}).Unprocess(raw)
	if err != nil {
		return nil, fmt.Errorf("repo: unprocess config: %w", err)
	}
	var cfg obj.Config
	if err := cborcodec.Unmarshal(plain, &cfg); err != nil {
		return nil, fmt.Errorf("repo: decode config: %w", err)
	}
	return &DecryptedRepo{
		backend: r.backend,
		key:     key,
		config:  cfg,
	}, nil
}

// DecryptedRepo holds the recovered master Key and the repository's
// ProcessOptions. It is the Decrypted state; Lock transitions it to Locked.
type DecryptedRepo struct {
	backend backend.Backend
	key     obj.Key
	config  obj.Config
}

// Key returns the recovered master key.
func (d *DecryptedRepo) Key() obj.Key { return d.key }

// Close ends the decrypted session, zeroizing the master key material:
// key bytes must not outlive the session that recovered them. The
// DecryptedRepo and anything sharing its key slices (a LockedRepo it
// produced) are unusable afterwards.
func (d *DecryptedRepo) Close() {
	d.key.Zeroize()
}

// Config returns the repository's Config, read once at decrypt time.
func (d *DecryptedRepo) Config() obj.Config { return d.config }

// Pipeline returns a pipeline.ChunkPipeline configured from the repository's
// master key and ProcessOptions.
func (d *DecryptedRepo) Pipeline() pipeline.ChunkPipeline {
	return pipeline.New(d.key, d.config.Process)
}

// liveLocks reads every Lock object except skip (the caller's own
// just-written lock).
func (d *DecryptedRepo) liveLocks(skip id.Id) ([]obj.Lock, error) {
	it, err := d.backend.Iter(obj.KindLock)
	if err != nil {
		return nil, fmt.Errorf("repo: list locks: %w", err)
	}
	var locks []obj.Lock
	for it.Next() {
		if it.Id() == skip {
			continue
		}
		raw, err := d.backend.ReadAll(obj.KindLock, it.Id())
		if err != nil {
			return nil, fmt.Errorf("repo: read lock %s: %w", it.Id(), err)
		}
		plain, err := d.Pipeline().Unprocess(raw)
		if err != nil {
			return nil, fmt.Errorf("repo: unprocess lock %s: %w", it.Id(), err)
		}
		var lock obj.Lock
		if err := cborcodec.Unmarshal(plain, &lock); err != nil {
			return nil, fmt.Errorf("repo: decode lock %s: %w", it.Id(), err)
		}
		locks = append(locks, lock)
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("repo: list locks: %w", err)
	}
	return locks, nil
}

// Lock performs the transition into the Locked state: it writes a Lock
// record for marker, then checks it against every other live Lock, and
// either returns a LockedRepo or removes the just-written Lock and fails
// with *LockConflictError. The write happens before the scan: of two
// racing incompatible attempts, at least one is guaranteed to observe the
// other's lock, so at most one can win.
func (d *DecryptedRepo) Lock(marker Marker) (*LockedRepo, error) {
	lock := obj.Lock{
		Meta:  obj.LockMeta{User: obj.CurrentUser(), Created: time.Now().UTC(), PID: uint32(os.Getpid())},
		State: marker.state(),
	}

	plain, err := cborcodec.Marshal(lock)
	if err != nil {
		return nil, fmt.Errorf("repo: serialize lock: %w", err)
	}
	processed, err := d.Pipeline().Process(plain)
	if err != nil {
		return nil, fmt.Errorf("repo: process lock: %w", err)
	}
	lockID := identify.Identify(d.key.Bytes.IdentifyKey, processed)
	if err := d.backend.WriteAll(obj.KindLock, lockID, processed); err != nil {
		return nil, fmt.Errorf("repo: write lock: %w", err)
	}

	existing, err := d.liveLocks(lockID)
	if err != nil {
		_ = d.backend.Remove(obj.KindLock, lockID)
		return nil, err
	}
	for _, other := range existing {
		if !lock.State.Compatible(other.State) {
			_ = d.backend.Remove(obj.KindLock, lockID)
			return nil, &LockConflictError{Requested: marker, Holder: other.Meta}
		}
	}

	return &LockedRepo{
		backend: d.backend,
		key:     d.key,
		config:  d.config,
		marker:  marker,
		lockID:  lockID,
	}, nil
}

// LockedRepo is a DecryptedRepo additionally holding a live Lock with a
// fixed Marker. Every read/update method checks the Marker before touching
// the backend.
type LockedRepo struct {
	backend backend.Backend
	key     obj.Key
	config  obj.Config
	marker  Marker
	lockID  id.Id
}

// Marker returns the access level this session locked with.
func (l *LockedRepo) Marker() Marker { return l.marker }

// identify computes the content id of processed bytes under this
// repository's master identify sub-key.
func (l *LockedRepo) identify(processed []byte) id.Id {
	return identify.Identify(l.key.Bytes.IdentifyKey, processed)
}

// Identify computes the content id of data under this repository's master
// identify sub-key. Unlike identify, which this package applies to the
// stored bytes of Index, Snapshot, and Key objects when writing them,
// Identify is exported so a caller assembling content-addressed,
// deduplicated blobs (pkg/backup) can address chunks and tree blobs by
// their plaintext bytes: identification runs ahead of compression and
// encryption, so identical content always yields the same id regardless of
// a fresh per-object encryption nonce.
func (l *LockedRepo) Identify(data []byte) id.Id {
	return identify.Identify(l.key.Bytes.IdentifyKey, data)
}

// Pipeline returns a pipeline.ChunkPipeline configured from the repository's
// master key and ProcessOptions.
func (l *LockedRepo) Pipeline() pipeline.ChunkPipeline {
	return pipeline.New(l.key, l.config.Process)
}

// Unlock removes the session's Lock object and returns a DecryptedRepo
// with no held locks. The removal is unconditional, and a failure to
// remove is not fatal: the caller still gets back a usable DecryptedRepo
// and decides whether to report the leftover Lock (cmd/dechst warns;
// purge-locks cleans up).
func (l *LockedRepo) Unlock() (*DecryptedRepo, error) {
	err := l.backend.Remove(obj.KindLock, l.lockID)
	dr := &DecryptedRepo{backend: l.backend, key: l.key, config: l.config}
	if err != nil {
		return dr, fmt.Errorf("repo: remove lock on unlock: %w", err)
	}
	return dr, nil
}

// Close ends the locked session entirely: the Lock object is removed
// best-effort and the master key material is zeroized. Intended for defer
// at the end of a command; callers that want to keep working in the
// Decrypted state use Unlock instead.
func (l *LockedRepo) Close() error {
	dr, err := l.Unlock()
	dr.Close()
	return err
}
