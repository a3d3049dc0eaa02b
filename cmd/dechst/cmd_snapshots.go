package main

import (
	"fmt"
	"strings"

	"github.com/dechst-go/dechst/pkg/repo"
)

func snapshotsCommand(args []string) error {
	fs, repoFlag := newFlagSet("snapshots")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := repoPath(*repoFlag)
	if err != nil {
		return err
	}

	lr, err := unlockRepo(path, repo.ReadLock)
	if err != nil {
		return fmt.Errorf("snapshots: %w", err)
	}
	defer closeLocked(lr)

	it, err := lr.Snapshots()
	if err != nil {
		return err
	}
	for it.Next() {
		snap, err := lr.SnapshotRead(it.Id())
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s  %s  %s\n",
			it.Id(), snap.Time.Format("2006-01-02 15:04:05"), snap.Root, strings.Join(snap.Tags, ","))
	}
	return it.Err()
}
