// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/jschatz1/howth/internal/daemon"
	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/lockfile"
	"github.com/jschatz1/howth/internal/ui"
)

// runInstall executes `howth install`, delegating to the daemon's
// long-lived Installer so the manifest/package caches it warms stay hot
// across repeated installs in the same project.
func runInstall(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("install", flag.ExitOnError)
	frozen := fs.Bool("frozen-lockfile", false, "Fail instead of updating the lockfile if it's out of date")
	ci := fs.Bool("ci", false, "Alias for --frozen-lockfile")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: howth install [options]

Installs dependencies from package.json, reusing the lockfile when it
satisfies the manifest.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	client, err := dialDaemon(globals)
	if err != nil {
		howtherrors.Fatal(err, globals.JSON)
	}
	defer client.Close()

	req := daemon.Request{
		Kind: daemon.KindPkgInstall,
		CWD:  resolveProjectRoot(globals),
	}
	if *frozen || *ci {
		req.Flags = append(req.Flags, "--frozen-lockfile")
	}

	spinner := NewSpinner(progressConfig(globals), "installing")
	if spinner != nil {
		_ = spinner.RenderBlank()
	}

	resp, err := client.Call(req)
	if spinner != nil {
		_ = spinner.Finish()
	}
	if err != nil {
		howtherrors.Fatal(err, globals.JSON)
	}
	if !resp.OK {
		howtherrors.Fatal(errFromResponse(resp), globals.JSON)
	}

	var lock lockfile.Lockfile
	if err := json.Unmarshal(resp.RunResult, &lock); err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"could not parse install result", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		_ = outputJSON(lock)
		return
	}
	ui.Successf("installed %d package(s)", len(lock.Packages))
}
