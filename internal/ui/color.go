// Package ui provides terminal output helpers for the howth CLI.
//
// It offers color helpers that respect --no-color and NO_COLOR, and a
// progress-bar helper (backed by schollz/progressbar) used by install and
// build to report long-running, multi-step work.
//
// Color usage guidelines:
//   - Red: errors, failures
//   - Yellow: warnings, cautions
//   - Green: success, completions
//   - Cyan: info, neutral messages
//   - Bold: headers, important labels
//   - Dim: less important details, paths
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// Pre-configured color instances for consistent CLI output. Initialized at
// package load time; each call respects the global color.NoColor setting.
var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// InitColors configures global color output based on the --no-color flag.
// Call this early in main() after parsing flags.
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// Success prints a green success message with a checkmark prefix.
func Success(msg string) { _, _ = Green.Println("✓ " + msg) }

// Successf prints a formatted green success message.
func Successf(format string, args ...any) { _, _ = Green.Printf("✓ "+format+"\n", args...) }

// Warning prints a yellow warning message.
func Warning(msg string) { _, _ = Yellow.Println("⚠ " + msg) }

// Warningf prints a formatted yellow warning message.
func Warningf(format string, args ...any) { _, _ = Yellow.Printf("⚠ "+format+"\n", args...) }

// Error prints a red error message.
func Error(msg string) { _, _ = Red.Println("✗ " + msg) }

// Errorf prints a formatted red error message.
func Errorf(format string, args ...any) { _, _ = Red.Printf("✗ "+format+"\n", args...) }

// Info prints a cyan informational message.
func Info(msg string) { _, _ = Cyan.Println("ℹ " + msg) }

// Infof prints a formatted cyan informational message.
func Infof(format string, args ...any) { _, _ = Cyan.Printf("ℹ "+format+"\n", args...) }

// Header prints a bold header with an underline separator.
func Header(text string) {
	_, _ = Bold.Println(text)
	fmt.Println(strings.Repeat("=", len(text)))
}

// SubHeader prints a bold sub-header without an underline.
func SubHeader(text string) { _, _ = Bold.Println(text) }

// Label returns a bold-formatted label string for inline use.
func Label(text string) string { return Bold.Sprint(text) }

// DimText returns a dim-formatted string for less important text.
func DimText(text string) string { return Dim.Sprint(text) }

// CountText returns a cyan-formatted count value for statistics display.
func CountText(count int) string { return Cyan.Sprint(count) }

// NewProgress creates a progress bar for a unit of work whose total step
// count is known ahead of time (e.g. "extract N packages", "transform N
// modules"). It renders to stderr so stdout stays reserved for --json and
// piped output, and is a no-op (renders nothing) when quiet is true.
func NewProgress(total int, description string, quiet bool) *progressbar.ProgressBar {
	if quiet {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(24),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
