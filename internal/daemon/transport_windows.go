//go:build windows

package daemon

import (
	"net"

	"github.com/Microsoft/go-winio"
)

// Listen opens the daemon's IPC transport: a Windows named pipe at
// socketPath (e.g. `\\.\pipe\howth-<hash>`).
func Listen(socketPath string) (net.Listener, error) {
	return winio.ListenPipe(socketPath, nil)
}

// Dial connects to a daemon listening at socketPath.
func Dial(socketPath string) (net.Conn, error) {
	return winio.DialPipe(socketPath, nil)
}
