package daemon

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jschatz1/howth/internal/devserver"
	"github.com/jschatz1/howth/internal/hmr"
	"github.com/jschatz1/howth/internal/pkgjson"
)

// eventChannelCapacity bounds the channel the watcher goroutine publishes
// settled events onto; a slow or absent consumer never blocks the
// filesystem-notification goroutine itself.
const eventChannelCapacity = 16

// WatchEvent is one settled (debounced) filesystem change.
type WatchEvent struct {
	Path string
	Op   fsnotify.Op
	Time time.Time
}

// Invalidators bundles the daemon's long-lived caches a watched change can
// invalidate. Every field is optional: a nil cache or hub is simply
// skipped, so the watcher runs the same whether or not a dev server is
// currently attached.
type Invalidators struct {
	Manifests   *pkgjson.Cache
	DevPipeline *devserver.Pipeline
	HMRHub      *hmr.Hub
}

// Watcher watches a set of project roots and keeps howth's in-memory
// caches coherent as files change on disk: manifest cache, dev-transform
// cache, and the HMR module graph. Build cache invalidation is
// deliberately not driven here — it is checked lazily on the next Build
// request instead, per the daemon's cache-invalidation contract.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger
	inv    Invalidators

	debounceDur time.Duration
	settleDur   time.Duration

	events chan WatchEvent

	mu          sync.Mutex
	roots       []string
	running     bool
	pending     map[string]time.Time
	droppedOut  int
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewWatcher creates a Watcher. logger defaults to slog.Default() if nil.
func NewWatcher(inv Invalidators, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fsw:         fsw,
		logger:      logger,
		inv:         inv,
		debounceDur: 200 * time.Millisecond,
		settleDur:   300 * time.Millisecond,
		events:      make(chan WatchEvent, eventChannelCapacity),
		pending:     make(map[string]time.Time),
	}, nil
}

// Events exposes settled change notifications for observers (metrics,
// bench harnesses, tests). The channel is never closed, not even by Stop.
func (w *Watcher) Events() <-chan WatchEvent { return w.events }

// Start begins watching roots (each walked recursively for directories to
// add) on a dedicated goroutine. Start is idempotent: calling it again
// while already running is a no-op.
func (w *Watcher) Start(roots []string) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.roots = append([]string(nil), roots...)
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			w.logger.Warn("daemon.watcher.add_failed", "root", root, "err", err)
		}
	}

	go w.run()
	return nil
}

// Stop halts the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh := w.stopCh
	doneCh := w.doneCh
	w.mu.Unlock()

	close(stopCh)
	<-doneCh
	_ = w.fsw.Close()
}

// Status reports whether the watcher is running and which roots it covers.
func (w *Watcher) Status() (watching bool, roots []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running, append([]string(nil), w.roots...)
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if isIgnoredDir(info.Name()) {
				return filepath.SkipDir
			}
			if err := w.fsw.Add(path); err != nil {
				w.logger.Warn("daemon.watcher.add_dir_failed", "path", path, "err", err)
			}
		}
		return nil
	})
}

func isIgnoredDir(name string) bool {
	switch name {
	case "node_modules", ".git", ".howth":
		return true
	default:
		return false
	}
}

func (w *Watcher) run() {
	defer close(w.doneCh)
	ticker := time.NewTicker(w.debounceDur)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.recordPending(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("daemon.watcher.error", "err", err)
		case <-ticker.C:
			w.flushSettled()
		}
	}
}

func (w *Watcher) recordPending(ev fsnotify.Event) {
	w.mu.Lock()
	w.pending[ev.Name] = time.Now()
	w.mu.Unlock()

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !isIgnoredDir(info.Name()) {
			_ = w.fsw.Add(ev.Name)
		}
	}
}

func (w *Watcher) flushSettled() {
	now := time.Now()
	w.mu.Lock()
	var settled []string
	for path, seen := range w.pending {
		if now.Sub(seen) >= w.settleDur {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		w.handleSettled(path, now)
	}
}

func (w *Watcher) handleSettled(path string, at time.Time) {
	w.invalidate(path)
	RecordWatchEventSettled()
	w.publish(WatchEvent{Path: path, Time: at})
}

func (w *Watcher) publish(ev WatchEvent) {
	select {
	case w.events <- ev:
	default:
		w.mu.Lock()
		w.droppedOut++
		w.mu.Unlock()
		RecordWatchEventDropped()
		w.logger.Warn("daemon.watcher.event_dropped", "path", ev.Path)
	}
}

// invalidate drives pkgjson-cache/dev-transform-cache/HMR invalidation for
// a single changed path. Build cache is untouched here by
// design.
func (w *Watcher) invalidate(path string) {
	if filepath.Base(path) == "package.json" {
		if w.inv.Manifests != nil {
			w.inv.Manifests.Invalidate(filepath.Dir(path))
		}
	}

	if w.inv.DevPipeline == nil {
		return
	}
	url := w.inv.DevPipeline.Invalidate(path)
	if w.inv.HMRHub != nil {
		w.inv.HMRHub.NotifyChange(url, time.Now().UnixNano())
	}
}
