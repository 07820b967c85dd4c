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
)

// runBuild executes `howth build [targets...]`, defaulting to the
// project's "build" script target when none are given.
func runBuild(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: howth build [targets...]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	runBuildLike(daemon.KindBuild, fs.Args(), "build", globals)
}

// runBuildLike dials the daemon, has it plan/execute a set of build-graph
// targets, and reports the resulting RunResult. bundle.go does not use it:
// `howth bundle` sends its own bundle request.
func runBuildLike(kind string, targets []string, label string, globals GlobalFlags) {
	client, err := dialDaemon(globals)
	if err != nil {
		howtherrors.Fatal(err, globals.JSON)
	}
	defer client.Close()

	resp, err := client.Call(daemon.Request{
		Kind:    kind,
		CWD:     resolveProjectRoot(globals),
		Targets: targets,
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
			"could not parse build result", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		_ = outputJSON(result)
		os.Exit(result.ExitCode)
	}

	printRunResult(label, result)
	os.Exit(result.ExitCode)
}
