package daemon

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the daemon's Prometheus metrics: cache hit/miss counts,
// watcher activity, and IPC traffic.
type metrics struct {
	once sync.Once

	manifestCacheHits   prometheus.Counter
	manifestCacheMisses prometheus.Counter

	buildCacheHits   prometheus.Counter
	buildCacheMisses prometheus.Counter

	devTransformCacheHits   prometheus.Counter
	devTransformCacheMisses prometheus.Counter

	watchEventsSettled prometheus.Counter
	watchEventsDropped prometheus.Counter

	ipcRequestsTotal   *prometheus.CounterVec
	ipcRequestDuration *prometheus.HistogramVec

	hmrUpdatesSent  prometheus.Counter
	hmrReloadsSent  prometheus.Counter
}

var daemonMetrics metrics

func init() {
	daemonMetrics.init()
}

func (m *metrics) init() {
	m.once.Do(func() {
		m.manifestCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "howth_manifest_cache_hits_total", Help: "package.json manifest lookups served from cache.",
		})
		m.manifestCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "howth_manifest_cache_misses_total", Help: "package.json manifest lookups that required a disk read.",
		})

		m.buildCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "howth_build_cache_hits_total", Help: "Build graph nodes served from a matching cache entry.",
		})
		m.buildCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "howth_build_cache_misses_total", Help: "Build graph nodes that had to be re-executed.",
		})

		m.devTransformCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "howth_dev_transform_cache_hits_total", Help: "Dev server module transforms served from cache.",
		})
		m.devTransformCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "howth_dev_transform_cache_misses_total", Help: "Dev server module transforms that were recomputed.",
		})

		m.watchEventsSettled = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "howth_watch_events_settled_total", Help: "Debounced filesystem change events dispatched by the watcher.",
		})
		m.watchEventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "howth_watch_events_dropped_total", Help: "Watch events dropped because the observer channel was full.",
		})

		m.ipcRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "howth_ipc_requests_total", Help: "IPC requests handled by the daemon, by kind and outcome.",
		}, []string{"kind", "ok"})
		m.ipcRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "howth_ipc_request_duration_seconds", Help: "IPC request handling latency, by kind.",
		}, []string{"kind"})

		m.hmrUpdatesSent = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "howth_hmr_updates_sent_total", Help: "Hot-module-replacement update messages broadcast to connected clients.",
		})
		m.hmrReloadsSent = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "howth_hmr_reloads_sent_total", Help: "Full-reload messages broadcast because no HMR boundary was found.",
		})

		prometheus.MustRegister(
			m.manifestCacheHits, m.manifestCacheMisses,
			m.buildCacheHits, m.buildCacheMisses,
			m.devTransformCacheHits, m.devTransformCacheMisses,
			m.watchEventsSettled, m.watchEventsDropped,
			m.ipcRequestsTotal, m.ipcRequestDuration,
			m.hmrUpdatesSent, m.hmrReloadsSent,
		)
	})
}

// InitMetrics registers the daemon's Prometheus collectors. Safe to call
// more than once; registration happens exactly once per process.
func InitMetrics() {
	daemonMetrics.init()
}

// RecordIPCRequest observes one handled IPC request's kind, success, and
// duration in seconds.
func RecordIPCRequest(kind string, ok bool, durationSeconds float64) {
	okLabel := "true"
	if !ok {
		okLabel = "false"
	}
	daemonMetrics.ipcRequestsTotal.WithLabelValues(kind, okLabel).Inc()
	daemonMetrics.ipcRequestDuration.WithLabelValues(kind).Observe(durationSeconds)
}

// RecordWatchEventSettled counts one debounced change dispatched to
// invalidation and observers.
func RecordWatchEventSettled() { daemonMetrics.watchEventsSettled.Inc() }

// RecordWatchEventDropped counts one change dropped because nothing was
// draining the watcher's observer channel.
func RecordWatchEventDropped() { daemonMetrics.watchEventsDropped.Inc() }

// RecordManifestCache records a manifest cache lookup outcome.
func RecordManifestCache(hit bool) {
	if hit {
		daemonMetrics.manifestCacheHits.Inc()
	} else {
		daemonMetrics.manifestCacheMisses.Inc()
	}
}

// RecordBuildCache records a build graph node cache lookup outcome.
func RecordBuildCache(hit bool) {
	if hit {
		daemonMetrics.buildCacheHits.Inc()
	} else {
		daemonMetrics.buildCacheMisses.Inc()
	}
}

// RecordDevTransformCache records a dev server transform cache lookup outcome.
func RecordDevTransformCache(hit bool) {
	if hit {
		daemonMetrics.devTransformCacheHits.Inc()
	} else {
		daemonMetrics.devTransformCacheMisses.Inc()
	}
}

// RecordHMRBroadcast records one HMR broadcast outcome: an update (fullReload
// false) or a full reload (fullReload true).
func RecordHMRBroadcast(fullReload bool) {
	if fullReload {
		daemonMetrics.hmrReloadsSent.Inc()
	} else {
		daemonMetrics.hmrUpdatesSent.Inc()
	}
}
