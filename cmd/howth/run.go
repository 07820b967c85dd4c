// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/jschatz1/howth/internal/buildgraph"
	"github.com/jschatz1/howth/internal/daemon"
	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/ui"
)

// runRun executes `howth run <script> [-- args...]`, planning and
// executing the single build-graph node the named script resolves to.
// The args are sent with the request, but the daemon does not append
// them to the script's command.
func runRun(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: howth run <script> [-- args...]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	entry := fs.Arg(0)
	scriptArgs := fs.Args()[1:]

	client, err := dialDaemon(globals)
	if err != nil {
		howtherrors.Fatal(err, globals.JSON)
	}
	defer client.Close()

	resp, err := client.Call(daemon.Request{
		Kind:  daemon.KindRunPlan,
		Entry: entry,
		CWD:   resolveProjectRoot(globals),
		Args:  scriptArgs,
	})
	if err != nil {
		howtherrors.Fatal(err, globals.JSON)
	}
	if !resp.OK {
		howtherrors.Fatal(errFromResponse(resp), globals.JSON)
	}

	var result buildgraph.RunResult
	if err := json.Unmarshal(resp.RunResult, &result); err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"could not parse run result", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		_ = outputJSON(result)
		os.Exit(result.ExitCode)
	}

	printRunResult(entry, result)
	os.Exit(result.ExitCode)
}

func printRunResult(label string, result buildgraph.RunResult) {
	for _, outcome := range result.Outcomes {
		switch outcome.Status {
		case buildgraph.StatusExecuted:
			ui.Successf("%s ran (exit %d)", outcome.NodeID, outcome.ExitCode)
		case buildgraph.StatusCacheHit:
			ui.Infof("%s (cached)", outcome.NodeID)
		case buildgraph.StatusSkippedUpstream:
			ui.Warningf("%s skipped: upstream failed", outcome.NodeID)
		case buildgraph.StatusFailed:
			ui.Errorf("%s failed (exit %d): %s", outcome.NodeID, outcome.ExitCode, outcome.Error)
		}
		if outcome.Stdout != "" {
			fmt.Print(outcome.Stdout)
		}
		if outcome.Stderr != "" {
			fmt.Fprint(os.Stderr, outcome.Stderr)
		}
	}
	if result.ExitCode == 0 {
		ui.Successf("%s: %d executed, %d cached", label, result.Counts.Executed, result.Counts.CacheHit)
	}
}
