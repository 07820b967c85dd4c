// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/pkgjson"
	"github.com/jschatz1/howth/internal/ui"
	"github.com/jschatz1/howth/internal/workspaces"
)

// runLink executes `howth link [names...]`, linking every discovered
// workspace (or just the named ones) into this project's node_modules.
// Pure filesystem work — doesn't need the daemon.
func runLink(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("link", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: howth link [names...]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	root := resolveProjectRoot(globals)
	manifests := pkgjson.NewCache()
	all, err := workspaces.Discover(root, manifests)
	if err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"could not discover workspaces", err.Error(), "", err), globals.JSON)
	}

	selected := filterWorkspaces(all, fs.Args())
	linked := make([]string, 0, len(selected))
	for _, ws := range selected {
		if err := workspaces.Link(root, ws); err != nil {
			howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
				"could not link workspace "+ws.Name, err.Error(), "", err), globals.JSON)
		}
		linked = append(linked, ws.Name)
	}

	if globals.JSON {
		_ = outputJSON(map[string]any{"linked": linked})
		return
	}
	if len(linked) == 0 {
		ui.Warning("no workspaces to link")
		return
	}
	ui.Successf("linked %d workspace(s): %v", len(linked), linked)
}

// runUnlink executes `howth unlink [names...]`, removing the
// node_modules/<name> symlink(s) a prior `howth link` created.
func runUnlink(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("unlink", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: howth unlink [names...]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	root := resolveProjectRoot(globals)
	manifests := pkgjson.NewCache()
	all, err := workspaces.Discover(root, manifests)
	if err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"could not discover workspaces", err.Error(), "", err), globals.JSON)
	}

	selected := filterWorkspaces(all, fs.Args())
	unlinked := make([]string, 0, len(selected))
	for _, ws := range selected {
		linkPath := filepath.Join(root, "node_modules", ws.Name)
		if _, err := os.Lstat(linkPath); err != nil {
			continue
		}
		if err := os.RemoveAll(linkPath); err != nil {
			howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
				"could not unlink workspace "+ws.Name, err.Error(), "", err), globals.JSON)
		}
		unlinked = append(unlinked, ws.Name)
	}

	if globals.JSON {
		_ = outputJSON(map[string]any{"unlinked": unlinked})
		return
	}
	if len(unlinked) == 0 {
		ui.Warning("no workspaces to unlink")
		return
	}
	ui.Successf("unlinked %d workspace(s): %v", len(unlinked), unlinked)
}

func filterWorkspaces(all []workspaces.Workspace, names []string) []workspaces.Workspace {
	if len(names) == 0 {
		return all
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := make([]workspaces.Workspace, 0, len(names))
	for _, ws := range all {
		if want[ws.Name] {
			out = append(out, ws)
		}
	}
	return out
}
