// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jschatz1/howth/internal/daemon"
	"github.com/jschatz1/howth/internal/daemonclient"
	howtherrors "github.com/jschatz1/howth/internal/errors"
)

// GlobalFlags carries the flags every subcommand inherits, parsed once in
// main() before the subcommand's own FlagSet runs.
type GlobalFlags struct {
	JSON    bool
	CWD     string
	Channel string
	NoColor bool
	Quiet   bool
	Verbose int
}

// resolveProjectRoot returns globals.CWD if set, else the process's
// current working directory.
func resolveProjectRoot(globals GlobalFlags) string {
	if globals.CWD != "" {
		return globals.CWD
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}

// dialDaemon connects to the daemon for globals' project, starting it
// first if nothing answers. Every subcommand that needs daemon state goes
// through this so "just works" on a cold project is the default.
func dialDaemon(globals GlobalFlags) (*daemonclient.Client, error) {
	root := resolveProjectRoot(globals)
	socketPath := daemon.DefaultSocketPath(root)

	client, err := daemonclient.Dial(socketPath)
	if err == nil {
		return client, nil
	}

	if err := startDaemonDetached(root); err != nil {
		return nil, err
	}

	return waitForDaemon(socketPath, 5*time.Second)
}

// waitForDaemon polls for a freshly started daemon to accept connections,
// giving it a moment to bind its socket before giving up.
func waitForDaemon(socketPath string, timeout time.Duration) (*daemonclient.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := daemonclient.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(100 * time.Millisecond)
	}
	return nil, lastErr
}

// startDaemonDetached re-execs the current binary as `howth daemon serve`,
// detached into its own process group and with stdout/stderr redirected to
// a log file, so the CLI command that triggered it can return immediately.
func startDaemonDetached(root string) error {
	if running, _ := daemonPID(root); running {
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return howtherrors.Failure(howtherrors.CodeDaemonNotRunning,
			"could not locate the howth binary to start the daemon", err.Error(), "", err)
	}

	logPath := daemon.DefaultLogFile(root)
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer logFile.Close()

	cmd := exec.Command(exe, "daemon", "serve", "--cwd", root)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	detachFromControllingTerminal(cmd)

	if err := cmd.Start(); err != nil {
		return howtherrors.Failure(howtherrors.CodeDaemonNotRunning,
			"failed to start the howth daemon", err.Error(), "", err)
	}
	return writePIDFile(daemon.DefaultPIDFile(root), cmd.Process.Pid)
}

// daemonPID reports whether a daemon for root is already running by
// checking its PID file and signaling the recorded process, removing a
// stale file left behind by an unclean exit.
func daemonPID(root string) (bool, int) {
	pidFile := daemon.DefaultPIDFile(root)
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return false, 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		os.Remove(pidFile)
		return false, 0
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		os.Remove(pidFile)
		return false, 0
	}
	if !processIsAlive(process) {
		os.Remove(pidFile)
		return false, 0
	}
	return true, pid
}

func writePIDFile(pidFile string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(pidFile), 0o755); err != nil {
		return err
	}
	return os.WriteFile(pidFile, []byte(strconv.Itoa(pid)), 0o644)
}

// stopDaemonProcess signals the daemon for root to terminate and removes
// its PID file. Safe to call when no daemon is running.
func stopDaemonProcess(root string) error {
	running, pid := daemonPID(root)
	if !running {
		return nil
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := terminateProcess(process); err != nil {
		return fmt.Errorf("signal daemon pid %d: %w", pid, err)
	}
	os.Remove(daemon.DefaultPIDFile(root))
	return nil
}
