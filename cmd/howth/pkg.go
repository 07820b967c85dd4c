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

// runPkg dispatches `howth pkg <explain>`.
func runPkg(args []string, globals GlobalFlags) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: howth pkg explain <specifier> [options]")
		os.Exit(1)
	}

	switch args[0] {
	case "explain":
		runPkgExplain(args[1:], globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown pkg subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func runPkgExplain(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("pkg explain", flag.ExitOnError)
	why := fs.Bool("why", false, "List the resolver's lookup order (the same steps for every specifier, not a trace)")
	cjs := fs.Bool("cjs", false, "Resolve using CommonJS conditions instead of ESM")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: howth pkg explain <specifier> [options]

Resolves a module specifier the same way the build graph and dev server
would, and reports where it landed.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	client, err := dialDaemon(globals)
	if err != nil {
		howtherrors.Fatal(err, globals.JSON)
	}
	defer client.Close()

	req := daemon.Request{
		Kind:      daemon.KindPkgExplain,
		Specifier: fs.Arg(0),
		CWD:       resolveProjectRoot(globals),
		Why:       *why,
	}
	if *cjs {
		req.ImportKind = "cjs"
	}

	resp, err := client.Call(req)
	if err != nil {
		howtherrors.Fatal(err, globals.JSON)
	}
	if !resp.OK {
		howtherrors.Fatal(errFromResponse(resp), globals.JSON)
	}

	if globals.JSON {
		_ = outputJSON(resp.Resolution)
		return
	}

	ui.Successf("%s -> %s", resp.Resolution.Specifier, resp.Resolution.ResolvedTo)
	fmt.Printf("  format: %s\n", resp.Resolution.Format)
	for i, step := range resp.Resolution.Steps {
		fmt.Printf("  %d. %s\n", i+1, step)
	}
}
