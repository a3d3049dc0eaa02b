package main

import (
	"fmt"

	"github.com/dechst-go/dechst/pkg/backend"
	"github.com/dechst-go/dechst/pkg/id"
	"github.com/dechst-go/dechst/pkg/obj"
	"github.com/dechst-go/dechst/pkg/repo"
)

// catCommand dumps one decoded repository object. Lock objects are left
// out: exposing pkg/repo's internal lock scan for a diagnostic command was
// not worth the extra surface.
func catCommand(args []string) error {
	fs, repoFlag := newFlagSet("cat")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("cat: expected an object kind: config|key|index|snapshot|pack")
	}
	kind := fs.Arg(0)

	path, err := repoPath(*repoFlag)
	if err != nil {
		return err
	}

	lr, err := unlockRepo(path, repo.ReadLock)
	if err != nil {
		return fmt.Errorf("cat: %w", err)
	}
	defer closeLocked(lr)

	switch kind {
	case "config":
		cfg, err := lr.ConfigRead()
		if err != nil {
			return err
		}
		fmt.Printf("%+v\n", cfg)

	case "key":
		if fs.NArg() < 2 {
			return fmt.Errorf("cat key: expected a key id")
		}
		keyID, err := resolveID(lr.KeysFind, fs.Arg(1))
		if err != nil {
			return err
		}
		password, err := resolvePassword(false)
		if err != nil {
			return err
		}
		if password == nil {
			return fmt.Errorf("cat key: a passphrase is required to unwrap a key")
		}
		key, err := lr.KeyRead(keyID, password.Bytes())
		password.Zeroize()
		if err != nil {
			return err
		}
		defer key.Zeroize()
		fmt.Printf("%s: %+v\n", keyID, key.Meta)

	case "index":
		if fs.NArg() < 2 {
			return fmt.Errorf("cat index: expected an index id")
		}
		indexID, err := resolveID(lr.IndicesFind, fs.Arg(1))
		if err != nil {
			return err
		}
		idx, err := lr.IndexRead(indexID)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d packs, %d superseded\n", indexID, len(idx.Packs), len(idx.Supersedes))
		for _, pe := range idx.Packs {
			fmt.Printf("  pack %s: %d blobs\n", pe.ID, len(pe.Blobs))
		}

	case "snapshot":
		if fs.NArg() < 2 {
			return fmt.Errorf("cat snapshot: expected a snapshot id")
		}
		snapID, err := resolveID(lr.SnapshotsFind, fs.Arg(1))
		if err != nil {
			return err
		}
		snap, err := lr.SnapshotRead(snapID)
		if err != nil {
			return err
		}
		fmt.Printf("%+v\n", snap)

	case "pack":
		if fs.NArg() < 2 {
			return fmt.Errorf("cat pack: expected a pack id")
		}
		packID, err := resolveID(lr.PacksFind, fs.Arg(1))
		if err != nil {
			return err
		}
		raw, err := lr.PackReadAll(packID)
		if err != nil {
			return err
		}
		_, entries, err := obj.DisassemblePack(raw)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d bytes, %d blobs\n", packID, len(raw), len(entries))
		for _, e := range entries {
			fmt.Printf("  %s  kind=%s  offset=%d  processed_len=%d  unprocessed_len=%d\n",
				e.ID, e.Kind, e.Offset, e.ProcessedLen, e.UnprocessedLen)
		}

	default:
		return fmt.Errorf("cat: unknown object kind %q", kind)
	}

	return nil
}

// resolveID parses s as a full hex id, falling back to prefix resolution via
// find against the repository's stored ids of that kind.
func resolveID(find func([]string) ([]backend.FindResult, error), s string) (id.Id, error) {
	if parsed, err := id.Parse(s); err == nil {
		return parsed, nil
	}
	results, err := find([]string{s})
	if err != nil {
		return id.Id{}, err
	}
	switch results[0].Outcome {
	case backend.FindUnique:
		return results[0].ID, nil
	case backend.FindNone:
		return id.Id{}, fmt.Errorf("no object found matching %q", s)
	default:
		return id.Id{}, fmt.Errorf("%q matches more than one object", s)
	}
}
