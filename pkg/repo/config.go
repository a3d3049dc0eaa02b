package repo

import (
	"fmt"

	cborcodec "github.com/dechst-go/dechst/pkg/codec/cbor"
	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/obj"
)

// ConfigExists requires config: Shared|Exclusive.
func (l *LockedRepo) ConfigExists() error {
	if err := requireAtLeast(l.marker.Config, AccessShared); err != nil {
		return err
	}
	return nil
}

// ConfigRead returns the repository Config read at decrypt time. It
// requires config: Shared|Exclusive.
func (l *LockedRepo) ConfigRead() (obj.Config, error) {
	if err := requireAtLeast(l.marker.Config, AccessShared); err != nil {
		return obj.Config{}, err
	}
	return l.config, nil
}

// ConfigUpdate pipelines and rewrites the repository Config. Requires
// config: Exclusive. Process is deliberately not updatable: changing the
// pipeline algorithms after init would make every existing object's id and
// bytes unreadable, so cfg.Process must equal the current configuration.
func (l *LockedRepo) ConfigUpdate(cfg obj.Config) error {
	if err := requireAtLeast(l.marker.Config, AccessExclusive); err != nil {
		return err
	}
	if cfg.Process != l.config.Process {
		return fmt.Errorf("repo: config update must not change process options")
	}
	plain, err := cborcodec.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("repo: serialize config: %w", err)
	}
	processed, err := l.Pipeline().Process(plain)
	if err != nil {
		return fmt.Errorf("repo: process config: %w", err)
	}
	if err := l.backend.WriteAll(obj.KindConfig, id.Zero, processed); err != nil {
		return fmt.Errorf("repo: write config: %w", err)
	}
	l.config = cfg
	return nil
}
