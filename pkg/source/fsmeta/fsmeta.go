// Package fsmeta extracts the platform filesystem metadata
// pkg/source/fssource needs to build tree.Node and tree.Metadata values,
// isolating the one syscall-level dependency of the ingestion path.
package fsmeta

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/dechst-go/dechst/pkg/obj/tree"
)

// Lstat extracts tree.Metadata and the tree.NodeKind tag (without its
// type-specific payload) for path without following a trailing symlink.
func Lstat(path string) (tree.Metadata, tree.Kind, uint64, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return tree.Metadata{}, "", 0, fmt.Errorf("fsmeta: lstat %q: %w", path, err)
	}

	uid := uint32(st.Uid)
	gid := uint32(st.Gid)
	meta := tree.Metadata{
		UID:     &uid,
		GID:     &gid,
		Mode:    uint32(st.Mode),
		ModTime: statTime(st),
		Size:    uint64(st.Size),
	}

	kind, device := kindOf(st.Mode, uint64(st.Rdev))
	return meta, kind, device, nil
}

// kindOf maps a stat mode's file-type bits to a tree.Kind, returning the
// device number for the kinds that carry one.
func kindOf(mode uint32, rdev uint64) (tree.Kind, uint64) {
	switch mode & unix.S_IFMT {
	case unix.S_IFDIR:
		return tree.KindDirectory, 0
	case unix.S_IFLNK:
		return tree.KindSymlink, 0
	case unix.S_IFBLK:
		return tree.KindDevice, rdev
	case unix.S_IFCHR:
		return tree.KindCharacterDevice, rdev
	case unix.S_IFIFO:
		return tree.KindFifo, 0
	case unix.S_IFSOCK:
		return tree.KindSocket, 0
	default:
		return tree.KindFile, 0
	}
}

// statTime converts a Stat_t's modification timestamp to time.Time.
func statTime(st unix.Stat_t) time.Time {
	return time.Unix(st.Mtim.Sec, st.Mtim.Nsec)
}

// IsDir reports whether path (followed if it is a symlink, per os.Stat)
// names a directory. fssource uses this to decide whether Iter may descend.
func IsDir(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("fsmeta: stat %q: %w", path, err)
	}
	return fi.IsDir(), nil
}
