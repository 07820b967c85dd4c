// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package main implements the howth CLI: a thin client over a persistent
// per-project daemon that owns package installation, module resolution,
// transpilation, bundling, the dev server, and test execution.
//
// Usage:
//
//	howth init                    Scaffold a new project
//	howth install                 Install dependencies
//	howth run <script>            Run a package.json script via the build graph
//	howth build [targets...]      Build one or more targets
//	howth dev                     Start the dev server with HMR
//	howth test [files...]         Run test files
//	howth watch start|stop|status Control the filesystem watcher
//	howth pkg explain <specifier> Explain how a specifier resolves
//	howth bench smoke             Run the in-process benchmark smoke suite
//	howth doctor                  Report daemon/watcher health
//	howth ping                    Round-trip the daemon
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/jschatz1/howth/internal/ui"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		jsonOut     = flag.Bool("json", false, "Emit machine-readable JSON instead of human-readable output")
		cwd         = flag.String("cwd", "", "Project directory (default: current directory)")
		channel     = flag.String("channel", "stable", "Release channel: stable, nightly, or dev")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress non-essential output")
		verbose     = flag.CountP("verbose", "v", "Increase log verbosity (repeatable)")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `howth - a JS/TS toolchain daemon and CLI

Usage:
  howth <command> [options]

Commands:
  init          Scaffold a new project
  create        Scaffold a new project from a template
  install       Install dependencies
  run           Run a package.json script via the build graph
  build         Build one or more targets
  bundle        Produce a production bundle
  test          Run test files
  dev           Start the dev server with HMR
  exec          Run a one-off binary from node_modules/.bin
  link          Link a local package into node_modules (or unlink it)
  watch         Control the filesystem watcher (start|stop|status)
  pkg           Inspect module resolution (explain)
  bench         Run benchmark suites (smoke)
  doctor        Report daemon/watcher health
  ping          Round-trip the daemon
  daemon        Manage the daemon process directly (serve|stop|status)

Global Options:
      --json         Emit JSON instead of human-readable output
      --cwd PATH     Project directory (default: current directory)
      --channel      Release channel: stable, nightly, dev (default "stable")
      --no-color     Disable colored output
  -q, --quiet        Suppress non-essential output
  -v, --verbose      Increase log verbosity (repeatable)
      --version      Show version and exit

Examples:
  howth install
  howth run build
  howth dev
  howth test src/app.test.js
  howth pkg explain react --why
  howth bench smoke --iters=5 --warmup=1 --size=1048576

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("howth version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	ui.InitColors(*noColor || os.Getenv("NO_COLOR") != "")

	globals := GlobalFlags{
		JSON:    *jsonOut,
		CWD:     *cwd,
		Channel: *channel,
		NoColor: *noColor,
		Quiet:   *quiet,
		Verbose: *verbose,
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, globals)
	case "create":
		runCreate(cmdArgs, globals)
	case "install":
		runInstall(cmdArgs, globals)
	case "run":
		runRun(cmdArgs, globals)
	case "build":
		runBuild(cmdArgs, globals)
	case "bundle":
		runBundle(cmdArgs, globals)
	case "test":
		runTest(cmdArgs, globals)
	case "dev":
		runDev(cmdArgs, globals)
	case "exec":
		runExec(cmdArgs, globals)
	case "link":
		runLink(cmdArgs, globals)
	case "unlink":
		runUnlink(cmdArgs, globals)
	case "watch":
		runWatch(cmdArgs, globals)
	case "pkg":
		runPkg(cmdArgs, globals)
	case "bench":
		runBench(cmdArgs, globals)
	case "doctor":
		runDoctor(cmdArgs, globals)
	case "ping":
		runPing(cmdArgs, globals)
	case "daemon":
		runDaemonCmd(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
