// Package daemonclient is the thin IPC client every `howth` CLI command
// dials through: connect to the daemon's socket, send one Request, read
// its Response. It carries no daemon state of its own.
package daemonclient

import (
	"errors"
	"net"
	"time"

	"github.com/jschatz1/howth/internal/daemon"
	howtherrors "github.com/jschatz1/howth/internal/errors"
)

// DefaultDialTimeout bounds how long Dial waits for the daemon socket to
// accept a connection before giving up and reporting it as not running.
const DefaultDialTimeout = 2 * time.Second

// Client is a single daemon connection. Not safe for concurrent use by
// multiple goroutines; callers needing concurrency should open one Client
// per goroutine.
type Client struct {
	conn net.Conn
}

// Dial connects to the daemon listening at socketPath. A connection
// refused or timeout is reported as CodeDaemonNotRunning so callers can
// offer to start the daemon rather than printing a raw network error.
func Dial(socketPath string) (*Client, error) {
	conn, err := dialWithTimeout(socketPath, DefaultDialTimeout)
	if err != nil {
		return nil, howtherrors.Failure(howtherrors.CodeDaemonNotRunning,
			"no howth daemon is running", err.Error(), "run `howth daemon start` or let this command start it", err)
	}
	return &Client{conn: conn}, nil
}

func dialWithTimeout(socketPath string, timeout time.Duration) (net.Conn, error) {
	type dialResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan dialResult, 1)
	go func() {
		conn, err := daemon.Dial(socketPath)
		resultCh <- dialResult{conn, err}
	}()
	select {
	case r := <-resultCh:
		return r.conn, r.err
	case <-time.After(timeout):
		return nil, errors.New("timed out dialing daemon socket")
	}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Call sends req and waits for the daemon's Response. Any transport
// failure (connection dropped mid-call, frame too large) is reported as
// CodeDaemonUnreachable.
func (c *Client) Call(req daemon.Request) (daemon.Response, error) {
	if err := daemon.WriteJSON(c.conn, req); err != nil {
		return daemon.Response{}, howtherrors.Failure(howtherrors.CodeDaemonUnreachable,
			"failed to send request to daemon", err.Error(), "", err)
	}

	var resp daemon.Response
	if err := daemon.ReadJSON(c.conn, &resp); err != nil {
		return daemon.Response{}, howtherrors.Failure(howtherrors.CodeDaemonUnreachable,
			"failed to read response from daemon", err.Error(), "", err)
	}
	return resp, nil
}

// Ping sends a Ping request with nonce and returns the daemon's Response;
// it does not compare the echoed resp.Nonce with nonce.
func (c *Client) Ping(nonce string) (daemon.Response, error) {
	return c.Call(daemon.Request{Kind: daemon.KindPing, Nonce: nonce})
}
