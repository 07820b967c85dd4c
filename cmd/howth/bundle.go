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

// runBundle executes `howth bundle [entries...]`: builds the module graph
// from the given entries (or "src/index.ts" by default), plans chunks,
// tree-shakes, and emits each chunk to .howth/dist — the module-graph +
// bundler pipeline, not the generic package.json-script path `howth build`
// uses.
func runBundle(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("bundle", flag.ExitOnError)
	format := fs.String("format", "esm", "Output format: esm, cjs, or iife")
	outDir := fs.String("out-dir", "", "Output directory (default: <project>/.howth/dist)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: howth bundle [entries...]\n\nOptions:\n")
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

	resp, err := client.Call(daemon.Request{
		Kind:    daemon.KindBundle,
		CWD:     resolveProjectRoot(globals),
		Entries: fs.Args(),
		Format:  *format,
		OutDir:  *outDir,
	})
	if err != nil {
		howtherrors.Fatal(err, globals.JSON)
	}
	if !resp.OK {
		howtherrors.Fatal(errFromResponse(resp), globals.JSON)
	}

	if globals.JSON {
		_ = outputJSON(resp.Bundle)
		return
	}

	if resp.Bundle == nil || len(resp.Bundle.Outputs) == 0 {
		ui.Warning("bundle produced no output files")
		return
	}
	for _, out := range resp.Bundle.Outputs {
		ui.Successf("wrote %s (%s, %d bytes)", out.Path, out.Chunk, out.Bytes)
	}
}
