// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	flag "github.com/spf13/pflag"

	"github.com/jschatz1/howth/internal/daemon"
	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/ui"
)

// defaultTestGlobs finds test files the same way most JS toolchains do
// when no explicit file list is given.
var defaultTestGlobs = []string{"**/*.test.{js,ts,jsx,tsx}", "**/*.spec.{js,ts,jsx,tsx}"}

// runTest executes `howth test [files...]`, expanding glob patterns when
// given, discovering test files by convention otherwise, then sends them
// to the daemon's dedicated test worker.
func runTest(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	timeoutSec := fs.Int("timeout", 0, "Per-file timeout in seconds (0 = default)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: howth test [files...] [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	root := resolveProjectRoot(globals)
	files, err := resolveTestFiles(root, fs.Args())
	if err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"could not expand test file patterns", err.Error(), "", err), globals.JSON)
	}
	if len(files) == 0 {
		if globals.JSON {
			_ = outputJSON(map[string]any{"files": []string{}, "passed": true})
			return
		}
		ui.Warning("no test files found")
		return
	}

	client, err := dialDaemon(globals)
	if err != nil {
		howtherrors.Fatal(err, globals.JSON)
	}
	defer client.Close()

	resp, err := client.Call(daemon.Request{
		Kind:       daemon.KindTestRun,
		CWD:        root,
		Files:      files,
		TimeoutSec: *timeoutSec,
	})
	if err != nil {
		howtherrors.Fatal(err, globals.JSON)
	}
	if !resp.OK {
		howtherrors.Fatal(errFromResponse(resp), globals.JSON)
	}

	var results []daemon.TestJobResult
	if err := json.Unmarshal(resp.TestResult, &results); err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"could not parse test result", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		_ = outputJSON(results)
		os.Exit(testExitCode(results))
	}

	passed := 0
	for _, r := range results {
		if r.Passed {
			ui.Successf("%s", r.File)
			passed++
			continue
		}
		ui.Errorf("%s", r.File)
		if r.Error != "" {
			fmt.Println(r.Error)
		}
	}
	ui.Successf("%d/%d passed", passed, len(results))
	os.Exit(testExitCode(results))
}

func testExitCode(results []daemon.TestJobResult) int {
	for _, r := range results {
		if !r.Passed {
			return howtherrors.ExitFailure
		}
	}
	return 0
}

func resolveTestFiles(root string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = defaultTestGlobs
	}

	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			// Not a glob pattern (or an invalid one) — treat it as a
			// literal path relative to root.
			abs := filepath.Join(root, pattern)
			if _, statErr := os.Stat(abs); statErr == nil && !seen[abs] {
				seen[abs] = true
				files = append(files, abs)
			}
			continue
		}
		for _, m := range matches {
			abs := filepath.Join(root, m)
			if seen[abs] {
				continue
			}
			seen[abs] = true
			files = append(files, abs)
		}
	}
	return files, nil
}
