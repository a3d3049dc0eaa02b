package main

import (
	"fmt"

	"github.com/dechst-go/dechst/pkg/obj"
	"github.com/dechst-go/dechst/pkg/repo"
)

func initCommand(args []string) error {
	fs, repoFlag := newFlagSet("init")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := repoPath(*repoFlag)
	if err != nil {
		return err
	}

	password, err := resolvePassword(true)
	if err != nil {
		return err
	}
	var passwordBytes []byte
	if password != nil {
		passwordBytes = password.Bytes()
		defer password.Zeroize()
	}

	_, keyID, err := repo.Init(openBackend(path), obj.DefaultProcessOptions(), passwordBytes)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	fmt.Printf("Initialized repository at %s\n", path)
	fmt.Printf("Key: %s\n", keyID)
	return nil
}
