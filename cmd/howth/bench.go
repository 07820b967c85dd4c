// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/jschatz1/howth/internal/bench"
	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/ui"
)

// runBench dispatches `howth bench <smoke|...>`. Only `smoke` is fully
// implemented; the other bench targets the daemon's build/install/test
// paths could eventually measure are left for a later pass.
func runBench(args []string, globals GlobalFlags) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: howth bench smoke [options]")
		os.Exit(1)
	}

	switch args[0] {
	case "smoke":
		runBenchSmoke(args[1:], globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown bench target: %s (only \"smoke\" is implemented)\n", args[0])
		os.Exit(1)
	}
}

func runBenchSmoke(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("bench smoke", flag.ExitOnError)
	iters := fs.Uint32("iters", 50, "Measured iterations per sub-benchmark")
	warmup := fs.Uint32("warmup", 5, "Warmup iterations per sub-benchmark")
	size := fs.Uint64("size", 4<<20, "Payload size in bytes for the hash/write benchmarks")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: howth bench smoke [options]

Runs a fixed set of in-process smoke benchmarks (BLAKE3 hashing, an atomic
write, a project-root walk-up) and reports timing stats and any warnings
about the parameters given.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	report, err := bench.RunSmoke(version, bench.Params{
		Iters:     *iters,
		Warmup:    *warmup,
		SizeBytes: *size,
	})
	if err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"bench smoke failed", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		_ = outputJSON(report)
		return
	}

	ui.Header("bench smoke")
	for _, w := range report.Warnings {
		ui.Warningf("[%s] %s", w.Code, w.Message)
	}
	for _, r := range report.Results {
		fmt.Printf("  %-22s samples=%-4d min=%8dns median=%8dns p95=%8dns max=%8dns\n",
			r.Name, r.Samples, r.MinNS, r.MedianNS, r.P95NS, r.MaxNS)
	}
}
