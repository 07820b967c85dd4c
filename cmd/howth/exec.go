// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	flag "github.com/spf13/pflag"

	howtherrors "github.com/jschatz1/howth/internal/errors"
)

// runExec executes `howth exec <bin> [args...]`, resolving bin against
// node_modules/.bin in the project root before falling back to PATH —
// the same lookup order `npx` uses for a locally installed binary.
func runExec(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("exec", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: howth exec <bin> [args...]\n")
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	root := resolveProjectRoot(globals)
	bin := fs.Arg(0)
	binArgs := fs.Args()[1:]

	binPath := filepath.Join(root, "node_modules", ".bin", bin)
	if _, err := os.Stat(binPath); err != nil {
		resolved, lookErr := exec.LookPath(bin)
		if lookErr != nil {
			howtherrors.Fatal(howtherrors.Validation(howtherrors.CodeRunEntryNotFound,
				fmt.Sprintf("%q not found in node_modules/.bin or PATH", bin), "").WithPath(binPath), globals.JSON)
		}
		binPath = resolved
	}

	cmd := exec.Command(binPath, binArgs...)
	cmd.Dir = root
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "PATH="+filepath.Join(root, "node_modules", ".bin")+string(os.PathListSeparator)+os.Getenv("PATH"))

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"exec failed", err.Error(), "", err), globals.JSON)
	}
}
