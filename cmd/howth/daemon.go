// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/jschatz1/howth/internal/bootstrap"
	"github.com/jschatz1/howth/internal/daemon"
	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/ui"
)

// runDaemonCmd dispatches `howth daemon <serve|stop|status>`, the
// low-level commands that manage the daemon process directly. Most users
// never call these: every other subcommand starts the daemon on demand via
// dialDaemon.
func runDaemonCmd(args []string, globals GlobalFlags) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: howth daemon <serve|stop|status>")
		os.Exit(1)
	}

	switch args[0] {
	case "serve":
		runDaemonServe(args[1:], globals)
	case "stop":
		runDaemonStop(args[1:], globals)
	case "status":
		runDaemonStatus(args[1:], globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown daemon subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func runDaemonServe(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("daemon serve", flag.ExitOnError)
	cwd := fs.String("cwd", "", "Project directory to serve")
	cacheDir := fs.String("cache-dir", "", "Build/package cache directory (default: in-memory build cache, package cache under the OS temp directory)")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: howth daemon serve [options]

Runs the howth daemon in the foreground, listening on its project-scoped
socket until terminated. Normally started detached by another command,
not invoked directly.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	root := *cwd
	if root == "" {
		root = resolveProjectRoot(globals)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{}))

	projCfg, err := bootstrap.Load(root)
	if err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"failed to load project config", err.Error(), "", err), globals.JSON)
	}
	resolvedCacheDir := *cacheDir
	if resolvedCacheDir == "" {
		resolvedCacheDir = projCfg.CacheDir
	}
	logger.Info("daemon.serve.config", "channel", projCfg.Channel, "cache_dir", resolvedCacheDir)

	st, err := daemon.NewState(root, version, resolvedCacheDir, logger)
	if err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"failed to initialize daemon state", err.Error(), "", err), globals.JSON)
	}

	socketPath := daemon.DefaultSocketPath(root)
	listener, err := daemon.Listen(socketPath)
	if err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeDaemonUnreachable,
			"failed to bind daemon socket", err.Error(), "is another daemon already running?", err), globals.JSON)
	}

	if *metricsAddr != "" {
		daemon.InitMetrics()
		go serveMetrics(*metricsAddr, logger)
	}

	d := daemon.New(listener, st)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("daemon.shutdown.signal")
		d.Close()
	}()

	logger.Info("daemon.serve.start", "socket", socketPath, "project_root", root)
	if err := d.Serve(); err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"daemon accept loop exited with an error", err.Error(), "", err), globals.JSON)
	}
	logger.Info("daemon.serve.stop")
}

func runDaemonStop(args []string, globals GlobalFlags) {
	root := resolveProjectRoot(globals)
	if err := stopDaemonProcess(root); err != nil {
		howtherrors.Fatal(howtherrors.Failure(howtherrors.CodeInternal,
			"failed to stop daemon", err.Error(), "", err), globals.JSON)
	}
	if !globals.Quiet {
		ui.Success("daemon stopped")
	}
}

func runDaemonStatus(args []string, globals GlobalFlags) {
	root := resolveProjectRoot(globals)
	running, pid := daemonPID(root)

	if globals.JSON {
		_ = outputJSON(map[string]any{"running": running, "pid": pid, "socket": daemon.DefaultSocketPath(root)})
		return
	}
	if running {
		ui.Successf("daemon running (pid %d)", pid)
	} else {
		ui.Info("daemon not running")
	}
}
