package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jschatz1/howth/internal/buildgraph"
	"github.com/jschatz1/howth/internal/bundler"
	"github.com/jschatz1/howth/internal/contract"
	"github.com/jschatz1/howth/internal/devserver"
	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/install"
	"github.com/jschatz1/howth/internal/modulegraph"
	"github.com/jschatz1/howth/internal/resolver"
	"github.com/jschatz1/howth/internal/transpile"
)

// handle dispatches one Request against state and returns its Response.
// Every branch is synchronous; long-running work (build execution, test
// runs) blocks the calling connection's goroutine, matching the
// one-goroutine-per-connection concurrency model.
func (s *State) handle(ctx context.Context, req Request) Response {
	hello := s.Hello()
	if result := validateRequest(req); !result.OK {
		return Err(req.Kind, hello, howtherrors.CodeFrameTooLarge, result.Message, "")
	}
	switch req.Kind {
	case KindPing:
		resp := Ok(KindPing, hello)
		resp.Nonce = req.Nonce
		return resp

	case KindWatchStart:
		roots := req.Roots
		if len(roots) == 0 {
			roots = []string{s.ProjectRoot}
		}
		if err := s.Watcher.Start(roots); err != nil {
			return errResponse(KindWatchStart, hello, err)
		}
		resp := Ok(KindWatchStart, hello)
		resp.Watching, resp.Roots = s.Watcher.Status()
		return resp

	case KindWatchStop:
		s.Watcher.Stop()
		resp := Ok(KindWatchStop, hello)
		resp.Watching, resp.Roots = s.Watcher.Status()
		return resp

	case KindWatchStatus:
		resp := Ok(KindWatchStatus, hello)
		resp.Watching, resp.Roots = s.Watcher.Status()
		return resp

	case KindRunPlan, KindBuild:
		return s.handleBuild(req, hello)

	case KindPkgExplain:
		return s.handleExplain(req, hello)

	case KindPkgInstall:
		return s.handleInstall(ctx, req, hello)

	case KindTestRun:
		return s.handleTestRun(ctx, req, hello)

	case KindDevStart:
		return s.handleDevStart(req, hello)

	case KindDevStop:
		return s.handleDevStop(ctx, req, hello)

	case KindBundle:
		return s.handleBundle(req, hello)

	default:
		return Err(req.Kind, hello, howtherrors.CodeInternal, "unknown request kind", "")
	}
}

func (s *State) handleBuild(req Request, hello Hello) Response {
	cwd := req.CWD
	if cwd == "" {
		cwd = s.ProjectRoot
	}

	graph, err := buildgraph.BuildGraphFromProject(cwd)
	if err != nil {
		return errResponse(req.Kind, hello, err)
	}

	targets := req.Targets
	if req.Kind == KindRunPlan && req.Entry != "" {
		targets = []string{req.Entry}
	}
	if len(targets) == 0 {
		targets = []string{"script:build"}
	}

	resolved := make([]string, 0, len(targets))
	for _, t := range targets {
		id, ok := buildgraph.ResolveTargetAlias(graph, t)
		if !ok {
			return Err(req.Kind, hello, howtherrors.CodeRunEntryNotFound, "target not found: "+t, cwd)
		}
		resolved = append(resolved, id)
	}

	plan, err := buildgraph.PlanTargets(graph, resolved)
	if err != nil {
		return errResponse(req.Kind, hello, err)
	}

	result := buildgraph.Execute(context.Background(), plan, buildgraph.ExecOptions{
		Cache:       s.BuildCache,
		MaxParallel: 4,
	})

	for _, outcome := range result.Outcomes {
		RecordBuildCache(outcome.Status == buildgraph.StatusCacheHit)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return errResponse(req.Kind, hello, err)
	}

	resp := Ok(req.Kind, hello)
	resp.RunResult = json.RawMessage(raw)
	return resp
}

func (s *State) handleExplain(req Request, hello Hello) Response {
	cwd := req.CWD
	if cwd == "" {
		cwd = s.ProjectRoot
	}

	conditions := resolver.DefaultConditionsESM
	if req.ImportKind == "cjs" {
		conditions = resolver.DefaultConditionsCJS
	}

	result, err := s.Resolver.Resolve(req.Specifier, cwd, conditions)
	if err != nil {
		return errResponse(req.Kind, hello, err)
	}

	resolution := &ExplainResolution{
		Specifier:  req.Specifier,
		ResolvedTo: result.Path,
		Format:     string(result.Format),
	}
	if req.Why {
		resolution.Steps = []string{
			"checked node: prefix and builtin table",
			"checked #imports subpath",
			"checked relative/absolute file path",
			"walked up node_modules for a bare specifier",
		}
	}

	resp := Ok(req.Kind, hello)
	resp.Resolution = resolution
	return resp
}

func (s *State) handleInstall(ctx context.Context, req Request, hello Hello) Response {
	cwd := req.CWD
	if cwd == "" {
		cwd = s.ProjectRoot
	}

	frozen := false
	for _, flag := range req.Flags {
		if flag == "--frozen-lockfile" || flag == "--ci" {
			frozen = true
		}
	}

	lock, err := s.Installer.Install(ctx, install.Options{CWD: cwd, FrozenLockfile: frozen})
	if err != nil {
		return errResponse(req.Kind, hello, err)
	}

	s.Manifests.Invalidate(cwd)

	raw, err := json.Marshal(lock)
	if err != nil {
		return errResponse(req.Kind, hello, err)
	}
	resp := Ok(req.Kind, hello)
	resp.RunResult = json.RawMessage(raw)
	return resp
}

func (s *State) handleTestRun(ctx context.Context, req Request, hello Hello) Response {
	if len(req.Files) == 0 {
		return Err(req.Kind, hello, howtherrors.CodeRunEntryNotFound, "test_run requires at least one file", req.CWD)
	}

	timeout := DefaultTestTimeout
	if req.TimeoutSec > 0 {
		timeout = time.Duration(req.TimeoutSec) * time.Second
	}

	results := make([]TestJobResult, 0, len(req.Files))
	for _, file := range req.Files {
		result, err := s.TestWorker.Run(ctx, file, timeout)
		if err != nil {
			result = TestJobResult{File: file, Passed: false, Error: err.Error()}
		}
		results = append(results, result)
	}

	raw, err := json.Marshal(results)
	if err != nil {
		return errResponse(req.Kind, hello, err)
	}
	resp := Ok(req.Kind, hello)
	resp.TestResult = json.RawMessage(raw)
	return resp
}

func (s *State) handleDevStart(req Request, hello Hello) Response {
	addr := req.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}

	entries := req.Entries
	if len(entries) == 0 {
		entries = []string{filepath.Join(s.ProjectRoot, "src", "index.ts")}
	}

	preBundle, err := devserver.Warm(s.ProjectRoot, entries, modulegraph.NewScanner())
	if err != nil {
		return errResponse(req.Kind, hello, err)
	}

	devAddr, err := s.DevHTTP.Start(addr, s.DevPipeline, preBundle, s.HMRHub)
	if err != nil {
		return errResponse(req.Kind, hello, err)
	}

	resp := Ok(req.Kind, hello)
	resp.DevAddr = devAddr
	return resp
}

func (s *State) handleDevStop(ctx context.Context, req Request, hello Hello) Response {
	if err := s.DevHTTP.Stop(ctx); err != nil {
		return errResponse(req.Kind, hello, err)
	}
	return Ok(req.Kind, hello)
}

// handleBundle drives the real module-graph -> chunk-planner -> tree-shake
// -> emit pipeline for one or more entries, writing each resulting chunk
// to outDir. Unlike handleBuild, which plans/executes generic package.json
// script nodes, this handler calls directly into internal/modulegraph and
// internal/bundler.
func (s *State) handleBundle(req Request, hello Hello) Response {
	cwd := req.CWD
	if cwd == "" {
		cwd = s.ProjectRoot
	}

	entries := req.Entries
	if len(entries) == 0 {
		entries = []string{filepath.Join(cwd, "src", "index.ts")}
	}
	for i, e := range entries {
		if !filepath.IsAbs(e) {
			entries[i] = filepath.Join(cwd, e)
		}
	}

	format, err := bundleFormat(req.Format)
	if err != nil {
		return Err(req.Kind, hello, howtherrors.CodeInternal, err.Error(), cwd)
	}

	outDir := req.OutDir
	if outDir == "" {
		outDir = filepath.Join(cwd, ".howth", "dist")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errResponse(req.Kind, hello, err)
	}

	load := func(path string) ([]byte, error) { return os.ReadFile(path) }
	builder := modulegraph.NewBuilder(s.Resolver, s.Manifests, load)
	graph, err := builder.Build(entries)
	if err != nil {
		return errResponse(req.Kind, hello, err)
	}

	backend := transpile.NewESBuildBackend()
	src := func(path string) (string, error) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		out, err := backend.Transpile(transpile.Spec{InputPath: path, ModuleKind: transpileKind(format)}, string(raw))
		if err != nil {
			return "", err
		}
		return out.Code, nil
	}

	var outputs []BundleOutput
	for _, entry := range entries {
		entryID, ok := graph.IDFor(entry)
		if !ok {
			return Err(req.Kind, hello, howtherrors.CodeRunEntryNotFound, "entry not found: "+entry, cwd)
		}

		plan := bundler.PlanChunks(graph, entryID)
		used := bundler.UsedExports(graph, entryID)

		stem := strings.TrimSuffix(filepath.Base(entry), filepath.Ext(entry))
		chunks := append([]*bundler.Chunk{plan.Main}, plan.Async...)
		for _, chunk := range chunks {
			code, err := bundler.Emit(graph, chunk, used, format, src)
			if err != nil {
				return errResponse(req.Kind, hello, err)
			}

			name := stem + ".js"
			if chunk != plan.Main {
				name = stem + "." + chunk.ID + ".js"
			}
			outPath := filepath.Join(outDir, name)
			if err := os.WriteFile(outPath, []byte(code), 0o644); err != nil {
				return errResponse(req.Kind, hello, err)
			}
			outputs = append(outputs, BundleOutput{Chunk: chunk.ID, Path: outPath, Bytes: len(code)})
		}
	}

	resp := Ok(req.Kind, hello)
	resp.Bundle = &BundleResult{Outputs: outputs}
	return resp
}

func bundleFormat(raw string) (bundler.OutputFormat, error) {
	switch raw {
	case "", "esm":
		return bundler.FormatESM, nil
	case "cjs":
		return bundler.FormatCJS, nil
	case "iife":
		return bundler.FormatIIFE, nil
	default:
		return "", fmt.Errorf("unknown bundle format: %s", raw)
	}
}

func transpileKind(format bundler.OutputFormat) transpile.ModuleKind {
	if format == bundler.FormatCJS {
		return transpile.ModuleCJS
	}
	return transpile.ModuleESM
}

// validateRequest checks a request's string-list and identifier fields
// against the daemon's soft payload limits before any handler touches
// them, so a runaway or malformed client request fails fast with a
// clear message rather than burning work building a graph or spawning
// test processes first.
func validateRequest(req Request) *contract.ValidationResult {
	for _, check := range []struct {
		label string
		items []string
	}{
		{"roots", req.Roots},
		{"args", req.Args},
		{"targets", req.Targets},
		{"files", req.Files},
		{"entries", req.Entries},
	} {
		if result := contract.ValidateStringList(check.label, check.items); !result.OK {
			return result
		}
	}
	if result := contract.ValidateIdentifier("nonce", req.Nonce); !result.OK {
		return result
	}
	if result := contract.ValidateIdentifier("addr", req.Addr); !result.OK {
		return result
	}
	return &contract.ValidationResult{OK: true}
}

func errResponse(kind string, hello Hello, err error) Response {
	if he, ok := err.(*howtherrors.HowthError); ok {
		return Err(kind, hello, he.Code, he.Message, he.Path)
	}
	return Err(kind, hello, howtherrors.CodeInternal, err.Error(), "")
}
