package daemon

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jschatz1/howth/internal/bundler"
	"github.com/jschatz1/howth/internal/buildgraph"
	"github.com/jschatz1/howth/internal/devserver"
	"github.com/jschatz1/howth/internal/hmr"
	"github.com/jschatz1/howth/internal/install"
	"github.com/jschatz1/howth/internal/npmrc"
	"github.com/jschatz1/howth/internal/pkgjson"
	"github.com/jschatz1/howth/internal/resolver"
	"github.com/jschatz1/howth/internal/transpile"
)

// State is the daemon's long-lived, request-spanning memory: every cache
// and long-running subsystem a request handler reads or mutates. One
// State is created at daemon startup and lives for the process's
// lifetime; request handlers only ever read/write through it, never hold
// their own copies.
type State struct {
	ProjectRoot string
	ServerVersion string

	Manifests *pkgjson.Cache
	Resolver  *resolver.Resolver

	BuildCache buildgraph.Cache

	DevPipeline *devserver.Pipeline
	HMRGraph    *hmr.Graph
	HMRHub      *hmr.Hub

	Watcher *Watcher

	Installer  *install.Installer
	TestWorker *TestWorker

	DevHTTP *DevHTTP

	Logger *slog.Logger
}

// NewState wires up a fresh State for projectRoot. cacheDir, if non-empty,
// backs the build cache with a FileCache persisted across daemon restarts;
// an empty cacheDir falls back to an in-memory cache for the process's
// lifetime only.
func NewState(projectRoot, serverVersion, cacheDir string, logger *slog.Logger) (*State, error) {
	if logger == nil {
		logger = slog.Default()
	}

	manifests := pkgjson.NewCache()
	r := resolver.New(manifests, projectRoot)

	buildCache, err := newBuildCache(cacheDir)
	if err != nil {
		return nil, err
	}

	plugins := bundler.NewPipeline()
	read := func(absPath string) ([]byte, error) { return os.ReadFile(absPath) }
	devPipeline := devserver.NewPipeline(projectRoot, r, plugins, transpile.NewESBuildBackend(), read)

	graph := hmr.NewGraph()
	hub := hmr.NewHub(graph)
	devPipeline.HMRGraph = graph

	watcher, err := NewWatcher(Invalidators{
		Manifests:   manifests,
		DevPipeline: devPipeline,
		HMRHub:      hub,
	}, logger)
	if err != nil {
		return nil, err
	}

	npmrcConfig, err := npmrc.Load(projectRoot)
	if err != nil {
		return nil, err
	}
	installerCacheDir := cacheDir
	if installerCacheDir == "" {
		installerCacheDir = filepath.Join(os.TempDir(), "howth-pkgcache")
	}
	installer, err := install.New(filepath.Join(installerCacheDir, "pkgcache"), npmrcConfig)
	if err != nil {
		return nil, err
	}

	return &State{
		ProjectRoot:   projectRoot,
		ServerVersion: serverVersion,
		Manifests:     manifests,
		Resolver:      r,
		BuildCache:    buildCache,
		DevPipeline:   devPipeline,
		HMRGraph:      graph,
		HMRHub:        hub,
		Watcher:       watcher,
		Installer:     installer,
		TestWorker:    NewTestWorker(""),
		DevHTTP:       &DevHTTP{},
		Logger:        logger,
	}, nil
}

func newBuildCache(cacheDir string) (buildgraph.Cache, error) {
	if cacheDir == "" {
		return buildgraph.NewMemoryCache(), nil
	}
	return buildgraph.NewFileCache(filepath.Join(cacheDir, "build"))
}

// Hello builds this State's Hello block for a Response.
func (s *State) Hello() Hello {
	return NewHello(s.ServerVersion)
}

// Shutdown stops the watcher and releases anything else that needs an
// explicit close. Safe to call multiple times.
func (s *State) Shutdown() {
	if s.Watcher != nil {
		s.Watcher.Stop()
	}
	if s.TestWorker != nil {
		s.TestWorker.Stop()
	}
	if s.DevHTTP != nil {
		_ = s.DevHTTP.Stop(context.Background())
	}
}
