package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/jschatz1/howth/internal/fingerprint"
)

// runtimeBaseDir returns the directory howth's daemon runtime files (socket,
// PID file, log) live under: $XDG_RUNTIME_DIR when set, otherwise a
// per-user directory under the OS temp dir.
func runtimeBaseDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "howth")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("howth-%d", os.Getuid()))
}

// projectKey derives a short, filesystem-safe identifier for a project root
// so multiple projects on one machine each get their own daemon socket
// instead of fighting over a single global one.
func projectKey(projectRoot string) string {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	return string(fingerprint.String(filepath.ToSlash(abs)))[:12]
}

// DefaultSocketPath returns the Unix socket (or Windows named pipe) path a
// daemon for projectRoot listens on by default.
func DefaultSocketPath(projectRoot string) string {
	name := "howth-" + projectKey(projectRoot) + ".sock"
	if runtime.GOOS == "windows" {
		return `\\.\pipe\` + name
	}
	return filepath.Join(runtimeBaseDir(), name)
}

// DefaultPIDFile returns the PID file path a daemon for projectRoot writes
// on start and removes on clean shutdown.
func DefaultPIDFile(projectRoot string) string {
	return filepath.Join(runtimeBaseDir(), "howth-"+projectKey(projectRoot)+".pid")
}

// DefaultLogFile returns the log file a detached `howth daemon start`
// redirects its stdout/stderr to.
func DefaultLogFile(projectRoot string) string {
	return filepath.Join(runtimeBaseDir(), "howth-"+projectKey(projectRoot)+".log")
}
