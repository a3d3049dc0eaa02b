package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/dechst-go/dechst/pkg/backend"
	"github.com/dechst-go/dechst/pkg/backend/local"
	"github.com/dechst-go/dechst/pkg/keystore"
	"github.com/dechst-go/dechst/pkg/repo"
)

// repoPath resolves the repository location from -repo, falling back to
// DECHST_REPO.
func repoPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv("DECHST_REPO"); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("no repository given: pass -repo or set DECHST_REPO")
}

// openBackend returns the local backend for path, honoring the v2:// URL
// scheme for the version 2 layout. dechst only ships the filesystem
// backend; any type satisfying backend.Backend could be substituted here
// without touching a caller.
func openBackend(path string) backend.Backend {
	return local.Parse(path)
}

// resolvePassword resolves the passphrase used to unwrap (or, with
// forInit, to create) a repository's master key, trying
// DECHST_NO_PASSWORD, DECHST_PASSWORD, DECHST_PASSWORD_FILE, and
// DECHST_PASSWORD_COMMAND in that order before falling back to an
// interactive prompt. A nil return with a nil error means
// DECHST_NO_PASSWORD was set.
// The caller is responsible for Zeroize once the passphrase has been used.
func resolvePassword(forInit bool) (*keystore.Password, error) {
	if os.Getenv("DECHST_NO_PASSWORD") != "" {
		return nil, nil
	}
	if pw := os.Getenv("DECHST_PASSWORD"); pw != "" {
		return keystore.NewPassword([]byte(pw)), nil
	}
	if path := os.Getenv("DECHST_PASSWORD_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read DECHST_PASSWORD_FILE: %w", err)
		}
		return keystore.NewPassword([]byte(strings.TrimRight(string(b), "\r\n"))), nil
	}
	if cmdline := os.Getenv("DECHST_PASSWORD_COMMAND"); cmdline != "" {
		out, err := exec.Command("sh", "-c", cmdline).Output()
		if err != nil {
			return nil, fmt.Errorf("run DECHST_PASSWORD_COMMAND: %w", err)
		}
		return keystore.NewPassword([]byte(strings.TrimRight(string(out), "\r\n"))), nil
	}
	if forInit {
		return promptPasswordTwice()
	}
	return promptPassword("Enter passphrase: ")
}

func promptPassword(prompt string) (*keystore.Password, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	return keystore.NewPassword([]byte(strings.TrimRight(line, "\r\n"))), nil
}

func promptPasswordTwice() (*keystore.Password, error) {
	for {
		pw, err := promptPassword("Enter new passphrase: ")
		if err != nil {
			return nil, err
		}
		confirm, err := promptPassword("Enter passphrase again: ")
		if err != nil {
			return nil, err
		}
		match := string(pw.Bytes()) == string(confirm.Bytes())
		confirm.Zeroize()
		if match {
			return pw, nil
		}
		pw.Zeroize()
		fmt.Fprintln(os.Stderr, "Passphrases did not match")
	}
}

// closeLocked ends a locked session, reporting (but not failing on) a lock
// removal error: a leftover Lock object is recoverable via purge-locks.
func closeLocked(lr *repo.LockedRepo) {
	if err := lr.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// unlockRepo resolves path's master key (DECHST_KEY selects a specific key
// by hex prefix when several were written by rotation; otherwise every key
// is tried) and locks with marker, returning a ready-to-use LockedRepo.
func unlockRepo(path string, marker repo.Marker) (*repo.LockedRepo, error) {
	dr, err := decryptRepo(path)
	if err != nil {
		return nil, err
	}
	lr, err := dr.Lock(marker)
	if err != nil {
		dr.Close()
		return nil, err
	}
	return lr, nil
}
