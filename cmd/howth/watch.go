// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/jschatz1/howth/internal/daemon"
	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/ui"
)

// runWatch dispatches `howth watch <start|stop|status>` against the
// daemon's filesystem watcher.
func runWatch(args []string, globals GlobalFlags) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: howth watch <start|stop|status> [roots...]")
		os.Exit(1)
	}

	var kind string
	var roots []string
	switch args[0] {
	case "start":
		kind = daemon.KindWatchStart
		roots = args[1:]
	case "stop":
		kind = daemon.KindWatchStop
	case "status":
		kind = daemon.KindWatchStatus
	default:
		fmt.Fprintf(os.Stderr, "Unknown watch subcommand: %s\n", args[0])
		os.Exit(1)
	}

	client, err := dialDaemon(globals)
	if err != nil {
		howtherrors.Fatal(err, globals.JSON)
	}
	defer client.Close()

	resp, err := client.Call(daemon.Request{Kind: kind, Roots: roots})
	if err != nil {
		howtherrors.Fatal(err, globals.JSON)
	}
	if !resp.OK {
		howtherrors.Fatal(errFromResponse(resp), globals.JSON)
	}

	if globals.JSON {
		_ = outputJSON(map[string]any{"watching": resp.Watching, "roots": resp.Roots})
		return
	}

	if resp.Watching {
		ui.Successf("watching %d root(s)", len(resp.Roots))
	} else {
		ui.Info("watcher stopped")
	}
}
