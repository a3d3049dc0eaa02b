package repo

import (
	"fmt"

	"github.com/dechst-go/dechst/pkg/backend"
	cborcodec "github.com/dechst-go/dechst/pkg/codec/cbor"
	"github.com/dechst-go/dechst/pkg/crypto/identify"
	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/keystore"
	"github.com/dechst-go/dechst/pkg/obj"
	"github.com/dechst-go/dechst/pkg/pipeline"
)

// Init creates a fresh repository on b: it lays out the backend, generates
// a random master Key, writes a pipelined Config carrying process, wraps
// the Key under userPassword (or stores it directly when userPassword is
// nil, matching DECHST_NO_PASSWORD), and writes the result as the
// repository's first Key object, identified under the master key itself.
// It returns the Repo in the Open state and the id the key was stored
// under.
func Init(b backend.Backend, process obj.ProcessOptions, userPassword []byte) (*Repo, id.Id, error) {
	if err := b.Create(); err != nil {
		return nil, id.Id{}, fmt.Errorf("repo: create backend: %w", err)
	}

	key, err := obj.RandomKey()
	if err != nil {
		return nil, id.Id{}, err
	}

	cfg, err := obj.NewConfig(process)
	if err != nil {
		return nil, id.Id{}, err
	}
	cfgRaw, err := cborcodec.Marshal(cfg)
	if err != nil {
		return nil, id.Id{}, fmt.Errorf("repo: serialize config: %w", err)
	}
	cfgProcessed, err := pipeline.New(key, cfg.Process).Process(cfgRaw)
	if err != nil {
		return nil, id.Id{}, fmt.Errorf("repo: process config: %w", err)
	}
	if err := b.WriteAll(obj.KindConfig, id.Zero, cfgProcessed); err != nil {
		return nil, id.Id{}, fmt.Errorf("repo: write config: %w", err)
	}

	keyRaw, err := marshalInitialKey(key, cfg.Process, userPassword)
	if err != nil {
		return nil, id.Id{}, err
	}

	keyID := identify.Identify(key.Bytes.IdentifyKey, keyRaw)
	if err := b.WriteAll(obj.KindKey, keyID, keyRaw); err != nil {
		return nil, id.Id{}, fmt.Errorf("repo: write key: %w", err)
	}

	r, err := Open(b)
	if err != nil {
		return nil, id.Id{}, err
	}
	return r, keyID, nil
}

// marshalInitialKey serializes key as an unencrypted obj.Key when
// userPassword is nil, or wraps it into an obj.EncryptedKey otherwise.
func marshalInitialKey(key obj.Key, process obj.ProcessOptions, userPassword []byte) ([]byte, error) {
	if userPassword == nil {
		raw, err := cborcodec.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("repo: serialize key: %w", err)
		}
		return raw, nil
	}

	ek, err := keystore.Wrap(key, obj.DefaultEncryptOptions(), process.Encryption, userPassword)
	if err != nil {
		return nil, err
	}
	raw, err := cborcodec.Marshal(ek)
	if err != nil {
		return nil, fmt.Errorf("repo: serialize key: %w", err)
	}
	return raw, nil
}
