// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/jschatz1/howth/internal/bootstrap"
	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/ui"
)

// scaffoldManifest is the on-disk shape of a freshly generated
// package.json; keys are emitted in struct field order, which is chosen
// by hand so new projects read the way a human-authored one would.
type scaffoldManifest struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Type    string            `json:"type"`
	Main    string            `json:"main"`
	Scripts map[string]string `json:"scripts"`
}

// runInit executes `howth init`, writing a package.json into the
// current (or --cwd) directory if one doesn't already exist. Doesn't
// need the daemon: this runs entirely in-process.
func runInit(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	name := fs.String("name", "", "Package name (defaults to the directory name)")
	force := fs.Bool("force", false, "Overwrite an existing package.json")
	channel := fs.String("channel", bootstrap.DefaultChannel, "Release channel to record in .howth/project.yaml")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: howth init [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	root := resolveProjectRoot(globals)
	manifestPath := filepath.Join(root, "package.json")

	if _, err := os.Stat(manifestPath); err == nil && !*force {
		howtherrors.Fatal(howtherrors.Validation(howtherrors.CodePkgSpecInvalid,
			"package.json already exists (use --force to overwrite)", manifestPath), globals.JSON)
	}

	pkgName := *name
	if pkgName == "" {
		pkgName = filepath.Base(root)
	}

	manifest := scaffoldManifest{
		Name:    pkgName,
		Version: "0.1.0",
		Type:    "module",
		Main:    "src/index.js",
		Scripts: map[string]string{
			"build": "howth build",
			"dev":   "howth dev",
			"test":  "howth test",
		},
	}

	if err := writeManifest(manifestPath, manifest); err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"could not write package.json", err.Error(), "", err), globals.JSON)
	}
	if err := bootstrap.Save(root, &bootstrap.Config{Channel: *channel}); err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"could not write .howth/project.yaml", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		_ = outputJSON(map[string]any{"path": manifestPath, "name": pkgName})
		return
	}
	ui.Successf("wrote %s", manifestPath)
}

func writeManifest(path string, manifest scaffoldManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
