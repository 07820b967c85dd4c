// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/jschatz1/howth/internal/daemon"
	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/ui"
)

// runDoctor reports daemon and watcher health: a thin wrapper combining
// Ping (is the daemon alive, and how fast does it answer) with
// WatchStatus (is it watching anything), rather than a dedicated health
// check surface of its own.
func runDoctor(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: howth doctor [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	root := resolveProjectRoot(globals)
	socketPath := daemon.DefaultSocketPath(root)

	client, err := dialDaemon(globals)
	if err != nil {
		report := map[string]any{"daemon_running": false, "socket": socketPath}
		if globals.JSON {
			_ = outputJSON(report)
			return
		}
		ui.Warning("daemon is not running and could not be started")
		fmt.Println(err)
		os.Exit(howtherrors.ExitFailure)
	}
	defer client.Close()

	start := time.Now()
	pingResp, pingErr := client.Ping("doctor")
	latency := time.Since(start)

	watchResp, watchErr := client.Call(daemon.Request{Kind: daemon.KindWatchStatus})

	report := map[string]any{
		"daemon_running": pingErr == nil,
		"socket":         socketPath,
		"server_version": pingResp.Hello.ServerVersion,
		"latency_ms":     latency.Milliseconds(),
		"watching":       watchResp.Watching,
		"watch_roots":    watchResp.Roots,
	}

	if globals.JSON {
		_ = outputJSON(report)
		return
	}

	ui.Header("howth doctor")
	if pingErr == nil {
		ui.Successf("daemon reachable (%s), version %s", latency, pingResp.Hello.ServerVersion)
	} else {
		ui.Error("daemon unreachable: " + pingErr.Error())
	}
	if watchErr == nil && watchResp.Watching {
		ui.Successf("watching %d root(s)", len(watchResp.Roots))
	} else {
		ui.Info("watcher is not running")
	}
}
