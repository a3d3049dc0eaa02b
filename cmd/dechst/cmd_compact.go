package main

import (
	"fmt"

	"github.com/dechst-go/dechst/pkg/repo"
)

func compactCommand(args []string) error {
	fs, repoFlag := newFlagSet("compact")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := repoPath(*repoFlag)
	if err != nil {
		return err
	}

	lr, err := unlockRepo(path, repo.WriteLock)
	if err != nil {
		return fmt.Errorf("compact: %w", err)
	}
	defer closeLocked(lr)

	indexID, err := lr.Compact()
	if err != nil {
		return fmt.Errorf("compact: %w", err)
	}

	fmt.Printf("New index: %s\n", indexID)
	return nil
}
