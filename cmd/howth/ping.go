// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"

	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/ui"
)

// runPing executes `howth ping`: round-trips a nonce through the daemon
// and reports the latency, starting the daemon first if necessary.
func runPing(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("ping", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: howth ping [options]\n\nOptions:\n")
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

	nonce := strconv.FormatInt(time.Now().UnixNano(), 10)
	start := time.Now()
	resp, err := client.Ping(nonce)
	elapsed := time.Since(start)
	if err != nil {
		howtherrors.Fatal(err, globals.JSON)
	}
	if resp.Nonce != nonce {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"daemon echoed an unexpected nonce", "", "", nil), globals.JSON)
	}

	if globals.JSON {
		_ = outputJSON(map[string]any{
			"ok":             true,
			"server_version": resp.Hello.ServerVersion,
			"latency_ms":     elapsed.Milliseconds(),
		})
		return
	}
	ui.Successf("pong from daemon %s (%s)", resp.Hello.ServerVersion, elapsed)
}
