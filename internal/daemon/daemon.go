package daemon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Daemon owns the IPC listener and the long-lived State every connection's
// requests are handled against.
type Daemon struct {
	listener net.Listener
	state    *State
	logger   *slog.Logger

	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	closing  bool
}

// New wraps an already-open listener and State into a Daemon.
func New(listener net.Listener, state *State) *Daemon {
	logger := state.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		listener: listener,
		state:    state,
		logger:   logger,
		conns:    make(map[net.Conn]struct{}),
	}
}

// Serve accepts connections until the listener is closed, handling each on
// its own goroutine. Serve returns nil on a clean shutdown (Close called).
func (d *Daemon) Serve() error {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			d.mu.Lock()
			closing := d.closing
			d.mu.Unlock()
			if closing || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		d.trackConn(conn, true)
		go d.handleConn(conn)
	}
}

// Close stops accepting connections, closes all open ones, and shuts down
// the daemon's state (including its watcher).
func (d *Daemon) Close() error {
	d.mu.Lock()
	d.closing = true
	conns := make([]net.Conn, 0, len(d.conns))
	for c := range d.conns {
		conns = append(conns, c)
	}
	d.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
	d.state.Shutdown()
	return d.listener.Close()
}

func (d *Daemon) trackConn(conn net.Conn, add bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if add {
		d.conns[conn] = struct{}{}
	} else {
		delete(d.conns, conn)
	}
}

func (d *Daemon) handleConn(conn net.Conn) {
	defer d.trackConn(conn, false)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		var req Request
		if err := ReadJSON(conn, &req); err != nil {
			if err != io.EOF {
				d.logger.Debug("daemon.conn.read_error", "err", err)
			}
			return
		}

		start := time.Now()
		resp := d.state.handle(ctx, req)
		RecordIPCRequest(req.Kind, resp.OK, time.Since(start).Seconds())

		if err := WriteJSON(conn, resp); err != nil {
			d.logger.Debug("daemon.conn.write_error", "err", err)
			return
		}
	}
}
