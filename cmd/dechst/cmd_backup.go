package main

import (
	"fmt"

	"github.com/dechst-go/dechst/pkg/backup"
	"github.com/dechst-go/dechst/pkg/repo"
	"github.com/dechst-go/dechst/pkg/source"
	"github.com/dechst-go/dechst/pkg/source/fssource"
	"github.com/dechst-go/dechst/pkg/source/stdinsource"
)

// stringList accumulates repeated -tag flag occurrences.
type stringList []string

func (s *stringList) String() string { return fmt.Sprint([]string(*s)) }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func backupCommand(args []string) error {
	fs, repoFlag := newFlagSet("backup")
	name := fs.String("name", "", "snapshot name")
	desc := fs.String("desc", "", "snapshot description")
	var tags stringList
	fs.Var(&tags, "tag", "tag to attach to the snapshot (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("backup: expected exactly one source path (or - for stdin)")
	}
	src := fs.Arg(0)

	path, err := repoPath(*repoFlag)
	if err != nil {
		return err
	}

	lr, err := unlockRepo(path, repo.WriteLock)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	defer closeLocked(lr)

	var s source.Source
	var root string
	if src == "-" {
		s = stdinsource.New()
		root = "stdin"
	} else {
		fsSrc, err := fssource.New(src)
		if err != nil {
			return err
		}
		s = fsSrc
		root = src
	}

	result, err := backup.Backup(lr, s, root, backup.Options{
		Tags:        tags,
		Name:        *name,
		Description: *desc,
	})
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}

	fmt.Printf("Snapshot: %s\n", result.SnapshotID)
	fmt.Printf("Tree: %s\n", result.Snapshot.Tree)
	return nil
}
