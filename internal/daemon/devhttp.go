package daemon

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/jschatz1/howth/internal/devserver"
)

// DevHTTP owns the optional dev-server HTTP listener the daemon starts on
// demand (spec §4.4): the daemon's IPC loop just flips this on/off,
// reusing the same DevPipeline/HMRHub state every other request handler
// shares so a build or watch event invalidates the same caches the dev
// server serves out of.
type DevHTTP struct {
	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
	addr     string
}

// Start begins serving the dev server on addr (host:port, empty host ok;
// port 0 picks a free one). Starting twice while already running is a
// no-op that returns the existing address.
func (d *DevHTTP) Start(addr string, pipeline *devserver.Pipeline, preBundle *devserver.PreBundleCache, hmrHandler http.Handler) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.listener != nil {
		return d.addr, nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen dev server: %w", err)
	}

	handler := devserver.NewServer(pipeline, preBundle, hmrHandler)
	srv := &http.Server{Handler: handler}

	d.listener = ln
	d.server = srv
	d.addr = ln.Addr().String()

	go func() {
		_ = srv.Serve(ln)
	}()

	return d.addr, nil
}

// Stop shuts down the dev server if running. A no-op when it isn't.
func (d *DevHTTP) Stop(ctx context.Context) error {
	d.mu.Lock()
	srv := d.server
	d.server = nil
	d.listener = nil
	d.addr = ""
	d.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Address returns the dev server's listen address, or "" if not running.
func (d *DevHTTP) Address() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addr
}
