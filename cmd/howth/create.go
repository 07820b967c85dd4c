// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/ui"
)

const createEntrySource = `export function main() {
  console.log("hello from howth");
}

main();
`

// runCreate executes `howth create <dir>`, scaffolding a brand new
// project directory: a package.json plus a minimal src/index.js entry.
// Like init, doesn't need the daemon.
func runCreate(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: howth create <dir>\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	dir := fs.Arg(0)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(resolveProjectRoot(globals), dir)
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		howtherrors.Fatal(howtherrors.Validation(howtherrors.CodePkgSpecInvalid,
			"target directory already exists and is not empty", dir), globals.JSON)
	}

	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"could not create project directory", err.Error(), "", err), globals.JSON)
	}

	manifest := scaffoldManifest{
		Name:    filepath.Base(dir),
		Version: "0.1.0",
		Type:    "module",
		Main:    "src/index.js",
		Scripts: map[string]string{
			"build": "howth build",
			"dev":   "howth dev",
			"test":  "howth test",
		},
	}
	if err := writeManifest(filepath.Join(dir, "package.json"), manifest); err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"could not write package.json", err.Error(), "", err), globals.JSON)
	}
	if err := os.WriteFile(filepath.Join(dir, "src", "index.js"), []byte(createEntrySource), 0o644); err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"could not write entry file", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		_ = outputJSON(map[string]any{"path": dir, "name": manifest.Name})
		return
	}
	ui.Successf("created %s", dir)
}
