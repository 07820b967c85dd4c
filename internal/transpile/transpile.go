// Package transpile defines a pluggable single-file compiler contract
// (TypeScript/JSX in, JS out) and a concrete esbuild-backed implementation.
package transpile

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	howtherrors "github.com/jschatz1/howth/internal/errors"
)

// ModuleKind is the output module format a transpile targets.
type ModuleKind string

const (
	ModuleESM ModuleKind = "esm"
	ModuleCJS ModuleKind = "cjs"
)

// JSXRuntime selects the JSX transform mode.
type JSXRuntime string

const (
	JSXAutomatic JSXRuntime = "automatic"
	JSXClassic   JSXRuntime = "classic"
)

// Spec is one transpile request's parameters.
type Spec struct {
	InputPath  string
	ModuleKind ModuleKind
	Sourcemaps bool
	JSXRuntime JSXRuntime
}

// Output is a completed transpile. When spec.Sourcemaps is set, the source
// map is embedded in Code as an inline data: comment (esbuild SourceMapInline).
type Output struct {
	Code string
}

// Backend is the pluggable compiler contract: Spec × source → Output.
type Backend interface {
	Transpile(spec Spec, source string) (Output, error)
}

// ESBuildBackend implements Backend via esbuild's single-file Transform
// API (not its bundler): howth's own modulegraph/bundler package owns
// module-graph construction, chunking, and tree-shaking, so only esbuild's
// per-file transform and minify entry points are used here.
type ESBuildBackend struct{}

func NewESBuildBackend() *ESBuildBackend { return &ESBuildBackend{} }

func (b *ESBuildBackend) Transpile(spec Spec, source string) (Output, error) {
	loader, err := loaderFor(spec.InputPath)
	if err != nil {
		return Output{}, err
	}

	opts := api.TransformOptions{
		Loader:         loader,
		Target:         api.ESNext,
		LogLevel:       api.LogLevelSilent,
		SourcesContent: api.SourcesContentInclude,
	}
	if spec.ModuleKind == ModuleCJS {
		opts.Format = api.FormatCommonJS
	} else {
		opts.Format = api.FormatESModule
	}
	if spec.JSXRuntime == JSXAutomatic {
		opts.JSX = api.JSXAutomatic
	} else {
		opts.JSX = api.JSXTransform
	}
	if spec.Sourcemaps {
		opts.Sourcemap = api.SourceMapInline
	}

	result := api.Transform(source, opts)
	if len(result.Errors) > 0 {
		return Output{}, howtherrors.Failure(howtherrors.CodeCompilerFailed,
			fmt.Sprintf("transpile failed for %s", spec.InputPath),
			formatMessages(result.Errors), "", nil)
	}

	return Output{Code: string(result.Code)}, nil
}

func loaderFor(path string) (api.Loader, error) {
	switch {
	case strings.HasSuffix(path, ".tsx"):
		return api.LoaderTSX, nil
	case strings.HasSuffix(path, ".ts"), strings.HasSuffix(path, ".mts"), strings.HasSuffix(path, ".cts"):
		return api.LoaderTS, nil
	case strings.HasSuffix(path, ".jsx"):
		return api.LoaderJSX, nil
	case strings.HasSuffix(path, ".js"), strings.HasSuffix(path, ".mjs"), strings.HasSuffix(path, ".cjs"):
		return api.LoaderJS, nil
	default:
		return 0, fmt.Errorf("no transpile loader for %s", path)
	}
}

func formatMessages(msgs []api.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s\n", m.Text)
	}
	return b.String()
}
