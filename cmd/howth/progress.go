// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ProgressConfig determines if and how progress should be displayed.
type ProgressConfig struct {
	Enabled bool
	Writer  io.Writer
	NoColor bool
}

// progressConfig derives a ProgressConfig from globals and TTY detection.
// Progress is disabled under --json, --quiet, or when stderr isn't a TTY
// (piped output, CI).
func progressConfig(globals GlobalFlags) ProgressConfig {
	enabled := !globals.JSON && !globals.Quiet && isatty.IsTerminal(os.Stderr.Fd())
	return ProgressConfig{Enabled: enabled, Writer: os.Stderr, NoColor: globals.NoColor}
}

// NewProgressBar creates a progress bar for a unit of work with a known
// total. Returns nil when progress is disabled; callers nil-check the
// result before using it.
func NewProgressBar(cfg ProgressConfig, total int64, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
		progressbar.OptionThrottle(65*time.Millisecond),
	)
}

// NewSpinner creates an indeterminate progress spinner for work whose
// total size isn't known ahead of time (installs, single build runs).
// Returns nil when progress is disabled.
func NewSpinner(cfg ProgressConfig, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
	)
}
