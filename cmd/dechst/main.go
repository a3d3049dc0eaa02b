// Package main implements the dechst CLI, a thin wrapper over pkg/repo
// and pkg/backup: init, unlock, backup, snapshots, and cat, plus compact
// and purge-locks for maintenance. Dispatch is a plain os.Args switch, no
// flag-parsing framework; errors are reported with
// fmt.Fprintf(os.Stderr, ...) and a non-zero exit code.
package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = initCommand(os.Args[2:])
	case "unlock":
		err = unlockCommand(os.Args[2:])
	case "backup":
		err = backupCommand(os.Args[2:])
	case "snapshots":
		err = snapshotsCommand(os.Args[2:])
	case "cat":
		err = catCommand(os.Args[2:])
	case "compact":
		err = compactCommand(os.Args[2:])
	case "purge-locks":
		err = purgeLocksCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`dechst: a content-addressed, deduplicating, encrypted backup repository

Usage:
  dechst init       [-repo path]
  dechst unlock     [-repo path]
  dechst backup     [-repo path] [-name n] [-desc d] [-tag k=v ...] <source-path | ->
  dechst snapshots  [-repo path]
  dechst cat        [-repo path] <config|key|index|snapshot|pack> [id]
  dechst compact    [-repo path]
  dechst purge-locks [-repo path]

Environment: DECHST_REPO, DECHST_PASSWORD, DECHST_PASSWORD_FILE,
DECHST_PASSWORD_COMMAND, DECHST_NO_PASSWORD, DECHST_KEY.`)
}

// newFlagSet returns a FlagSet pre-wired with the -repo flag every
// subcommand accepts.
func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	repo := fs.String("repo", "", "repository path (or set DECHST_REPO)")
	return fs, repo
}
