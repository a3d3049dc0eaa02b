package main

import (
	"fmt"
	"os"

	"github.com/dechst-go/dechst/pkg/backend"
	"github.com/dechst-go/dechst/pkg/repo"
)

// purgeLocksCommand removes every Lock object whose recorded pid is no
// longer alive on this host. It does not itself take a lock: scanning and
// removing stale Lock objects only needs the Decrypted state, never a live
// session of its own.
func purgeLocksCommand(args []string) error {
	fs, repoFlag := newFlagSet("purge-locks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := repoPath(*repoFlag)
	if err != nil {
		return err
	}

	dr, err := decryptRepo(path)
	if err != nil {
		return fmt.Errorf("purge-locks: %w", err)
	}
	defer dr.Close()

	purged, err := dr.PurgeStaleLocks()
	if err != nil {
		return fmt.Errorf("purge-locks: %w", err)
	}

	if len(purged) == 0 {
		fmt.Println("No stale locks found")
		return nil
	}
	for _, lockID := range purged {
		fmt.Printf("Removed stale lock %s\n", lockID)
	}
	return nil
}

// decryptRepo opens path and resolves its master Key into a DecryptedRepo,
// the shared first half of unlockRepo's work for callers (like
// purgeLocksCommand) that need the Decrypted state without locking.
func decryptRepo(path string) (*repo.DecryptedRepo, error) {
	r, err := repo.Open(openBackend(path))
	if err != nil {
		return nil, err
	}

	password, err := resolvePassword(false)
	if err != nil {
		return nil, err
	}
	if password != nil {
		defer password.Zeroize()
	}

	if keyPrefix := os.Getenv("DECHST_KEY"); keyPrefix != "" {
		found, err := r.FindKeyID(keyPrefix)
		if err != nil {
			return nil, err
		}
		if found.Outcome != backend.FindUnique {
			return nil, fmt.Errorf("DECHST_KEY %q did not resolve to a unique key", keyPrefix)
		}
		if password == nil {
			return r.TryUnencrypted(found.ID)
		}
		return r.Decrypt(found.ID, password.Bytes())
	}

	if password == nil {
		it, err := r.Keys()
		if err != nil {
			return nil, err
		}
		if !it.Next() {
			return nil, fmt.Errorf("repository has no keys")
		}
		return r.TryUnencrypted(it.Id())
	}

	return r.DecryptAny(password.Bytes())
}
