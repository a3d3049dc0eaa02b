package main

import (
	"fmt"

	"github.com/dechst-go/dechst/pkg/repo"
)

// unlockCommand verifies that the configured password/key resolves and
// reports the repository's identity, without holding the lock afterward: a
// diagnostic for checking DECHST_* configuration before a real backup runs.
func unlockCommand(args []string) error {
	fs, repoFlag := newFlagSet("unlock")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := repoPath(*repoFlag)
	if err != nil {
		return err
	}

	lr, err := unlockRepo(path, repo.ReadLock)
	if err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	defer closeLocked(lr)

	cfg, err := lr.ConfigRead()
	if err != nil {
		return err
	}

	fmt.Println("Repository unlocked")
	fmt.Printf("ID: %s\n", cfg.ID)
	fmt.Printf("Chunker: min=%d avg=%d max=%d\n",
		cfg.Process.Chunker.MinSize, cfg.Process.Chunker.AvgSize, cfg.Process.Chunker.MaxSize)
	fmt.Printf("Identifier: %s  Compression: %s  Encryption: %s  Verifier: %s\n",
		cfg.Process.Identifier, cfg.Process.Compression, cfg.Process.Encryption, cfg.Process.Verifier)
	return nil
}
