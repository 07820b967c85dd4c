// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/jschatz1/howth/internal/daemon"
	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/ui"
)

// runDev executes `howth dev`: starts the daemon's dev server (if not
// already running) and blocks until interrupted, then tears it down so a
// second `howth dev` in the same project can bind the port again.
func runDev(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("dev", flag.ExitOnError)
	addr := fs.String("host", "127.0.0.1:0", "Address to bind the dev server on")
	entry := fs.StringArray("entry", nil, "Entry file(s) to pre-bundle dependencies for (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: howth dev [options]

Starts the dev server with hot module replacement, watching the project
for changes until interrupted.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	root := resolveProjectRoot(globals)

	client, err := dialDaemon(globals)
	if err != nil {
		howtherrors.Fatal(err, globals.JSON)
	}
	defer client.Close()

	if _, err := client.Call(daemon.Request{Kind: daemon.KindWatchStart, Roots: []string{root}}); err != nil {
		howtherrors.Fatal(err, globals.JSON)
	}

	resp, err := client.Call(daemon.Request{
		Kind:    daemon.KindDevStart,
		CWD:     root,
		Addr:    *addr,
		Entries: *entry,
	})
	if err != nil {
		howtherrors.Fatal(err, globals.JSON)
	}
	if !resp.OK {
		howtherrors.Fatal(errFromResponse(resp), globals.JSON)
	}

	if globals.JSON {
		_ = outputJSON(map[string]any{"addr": resp.DevAddr})
	} else {
		ui.Successf("dev server listening on http://%s", resp.DevAddr)
		ui.Info("press ctrl-c to stop")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	if _, err := client.Call(daemon.Request{Kind: daemon.KindDevStop}); err != nil && !globals.Quiet {
		ui.Warning("could not stop dev server cleanly: " + err.Error())
	}
}
