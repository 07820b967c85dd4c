package devserver

import (
	"encoding/json"
	"fmt"
	"go/token"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jschatz1/howth/internal/bundler"
	"github.com/jschatz1/howth/internal/hmr"
	"github.com/jschatz1/howth/internal/modulegraph"
	"github.com/jschatz1/howth/internal/resolver"
	"github.com/jschatz1/howth/internal/transpile"
)

// Entry is one cached transform result, keyed by root-relative URL.
type Entry struct {
	Code        string
	ContentType string
	Timestamp   int64
}

// FileReader loads a file's raw bytes from disk (or a plugin's Load hook).
type FileReader func(absPath string) ([]byte, error)

// Pipeline implements the per-request resolve -> load -> transpile ->
// plugin-transform -> import-rewrite -> cache-by-URL sequence.
type Pipeline struct {
	ProjectRoot string
	Resolver    *resolver.Resolver
	Plugins     *bundler.Pipeline
	Transpiler  transpile.Backend
	Read        FileReader
	ESMConds    []string
	HMRGraph    *hmr.Graph // optional; nil disables HMR edge recording

	mu      sync.Mutex
	cache   map[string]Entry
	clock   int64
	scanner *modulegraph.Scanner
}

func NewPipeline(root string, r *resolver.Resolver, plugins *bundler.Pipeline, t transpile.Backend, read FileReader) *Pipeline {
	return &Pipeline{
		ProjectRoot: root,
		Resolver:    r,
		Plugins:     plugins,
		Transpiler:  t,
		Read:        read,
		ESMConds:    resolver.DefaultConditionsESM,
		cache:       make(map[string]Entry),
		scanner:     modulegraph.NewScanner(),
	}
}

// Serve runs the full pipeline for url, serving from cache when present.
func (p *Pipeline) Serve(url string) (Entry, error) {
	p.mu.Lock()
	if e, ok := p.cache[url]; ok {
		p.mu.Unlock()
		return e, nil
	}
	p.mu.Unlock()

	entry, err := p.build(url)
	if err != nil {
		return Entry{}, err
	}

	p.mu.Lock()
	p.clock++
	entry.Timestamp = p.clock
	p.cache[url] = entry
	p.mu.Unlock()
	return entry, nil
}

// Invalidate drops the cached entry for changedAbsPath and returns its
// root-relative URL so the caller can run HMR boundary detection against
// the same URL the HMR graph tracks edges under. A CSS file is never
// cached or tracked under its plain root-relative URL: buildStyle and
// rewriteImports both key it under the /@style/ prefix, so that's the URL
// this invalidation has to compute too, or the cache entry and HMR edges
// it's meant to drop are simply never found.
func (p *Pipeline) Invalidate(changedAbsPath string) string {
	url := rootRelativeURL(p.ProjectRoot, changedAbsPath)
	if strings.HasSuffix(changedAbsPath, ".css") {
		url = PrefixStyle + strings.TrimPrefix(url, "/")
	}
	p.mu.Lock()
	delete(p.cache, url)
	p.mu.Unlock()
	if p.HMRGraph != nil {
		p.HMRGraph.Forget(url)
	}
	return url
}

func (p *Pipeline) build(url string) (Entry, error) {
	if strings.HasPrefix(url, PrefixStyle) {
		return p.buildStyle(url)
	}

	absPath, err := p.resolveURL(url)
	if err != nil {
		return Entry{}, err
	}

	if r := p.Plugins.Load(absPath); r != nil {
		return p.finish(url, absPath, r.Code)
	}

	raw, err := p.Read(absPath)
	if err != nil {
		return Entry{}, fmt.Errorf("devserver: read %s: %w", absPath, err)
	}
	return p.finish(url, absPath, string(raw))
}

func (p *Pipeline) finish(url, absPath, code string) (Entry, error) {
	if isJSON(absPath) {
		return Entry{Code: jsonModule(code), ContentType: "application/javascript"}, nil
	}

	if needsTranspile(absPath) {
		out, err := p.Transpiler.Transpile(transpile.Spec{
			InputPath:  absPath,
			ModuleKind: transpile.ModuleESM,
			JSXRuntime: transpile.JSXAutomatic,
			Sourcemaps: true,
		}, code)
		if err != nil {
			return Entry{}, err
		}
		code = out.Code
	}

	code = p.Plugins.Transform(code, absPath)
	code = p.rewriteImports(url, code, filepath.Dir(absPath))
	code = prependHMRPreamble(url, code)

	return Entry{Code: code, ContentType: "application/javascript"}, nil
}

func (p *Pipeline) buildStyle(url string) (Entry, error) {
	relPath := strings.TrimPrefix(url, PrefixStyle)
	absPath := filepath.Join(p.ProjectRoot, relPath)
	raw, err := p.Read(absPath)
	if err != nil {
		return Entry{}, fmt.Errorf("devserver: read %s: %w", absPath, err)
	}
	return Entry{Code: styleInjectorModule(url, string(raw)), ContentType: "application/javascript"}, nil
}

func (p *Pipeline) resolveURL(url string) (string, error) {
	if r := p.Plugins.ResolveID(url, ""); r != nil {
		return r.ID, nil
	}
	if strings.HasPrefix(url, PrefixModules) {
		return "", fmt.Errorf("devserver: %s must be served from the pre-bundle cache", url)
	}
	rel := strings.TrimPrefix(url, "/")
	abs := filepath.Join(p.ProjectRoot, rel)
	result, err := p.Resolver.Resolve("./"+filepath.Base(abs), filepath.Dir(abs), p.ESMConds)
	if err == nil {
		return result.Path, nil
	}
	return abs, nil
}

// rewriteImports rewrites bare specifiers to /@modules/<pkg> and
// relative/absolute specifiers to extension-completed root-relative URLs.
// Specifiers are located by reparsing the already-transpiled code with the
// same tree-sitter scanner the module graph uses, so template literals,
// comments, and string contents are never mistaken for specifiers.
func (p *Pipeline) rewriteImports(url, code, importerDir string) string {
	specs, err := p.scanner.Scan("synthetic.js", []byte(code))
	if err != nil {
		return code
	}

	var imported []string
	for _, spec := range specs {
		var rewritten string
		switch {
		case strings.HasPrefix(spec.Value, "."), strings.HasPrefix(spec.Value, "/"):
			result, err := p.Resolver.Resolve(spec.Value, importerDir, p.ESMConds)
			if err != nil {
				continue
			}
			if strings.HasSuffix(result.Path, ".css") {
				rewritten = PrefixStyle + strings.TrimPrefix(rootRelativeURL(p.ProjectRoot, result.Path), "/")
			} else {
				rewritten = rootRelativeURL(p.ProjectRoot, result.Path)
			}
		case spec.Value == HMRClientURL, spec.Value == ReactRefreshURL,
			strings.HasPrefix(spec.Value, PrefixModules), strings.HasPrefix(spec.Value, PrefixStyle):
			continue
		default:
			rewritten = PrefixModules + sanitizePackageName(spec.Value)
		}
		code = strings.ReplaceAll(code, `"`+spec.Value+`"`, `"`+rewritten+`"`)
		code = strings.ReplaceAll(code, `'`+spec.Value+`'`, `'`+rewritten+`'`)
		imported = append(imported, rewritten)
	}

	if p.HMRGraph != nil {
		p.HMRGraph.SetModuleImports(url, imported)
	}
	return code
}

func prependHMRPreamble(url, code string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "import { createHotContext as __howth_createHotContext } from %q;\n", HMRClientURL)
	fmt.Fprintf(&b, "import.meta.hot = __howth_createHotContext(%q);\n", url)
	b.WriteString(code)
	return b.String()
}

func styleInjectorModule(url, css string) string {
	encoded, _ := json.Marshal(css)
	var b strings.Builder
	fmt.Fprintf(&b, "import { createHotContext as __howth_createHotContext } from %q;\n", HMRClientURL)
	fmt.Fprintf(&b, "import.meta.hot = __howth_createHotContext(%q);\n", url)
	fmt.Fprintf(&b, "const __css = %s;\n", string(encoded))
	b.WriteString("let __style = document.createElement('style');\n")
	b.WriteString("__style.textContent = __css;\ndocument.head.appendChild(__style);\n")
	fmt.Fprintf(&b, "if (import.meta.hot) { import.meta.hot.accept(() => { __style.textContent = __css; }); }\n")
	b.WriteString("export default __css;\n")
	return b.String()
}

// jsonModule emits ESM exports for a JSON module: a default export of the
// full decoded value, plus a named export for every top-level key that is
// a valid JS identifier.
func jsonModule(raw string) string {
	var value map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return fmt.Sprintf("export default %s;\n", raw)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "const __json = %s;\n", raw)
	for key := range value {
		if isValidIdentifier(key) {
			fmt.Fprintf(&b, "export const %s = __json[%q];\n", key, key)
		}
	}
	b.WriteString("export default __json;\n")
	return b.String()
}

func isValidIdentifier(s string) bool {
	if s == "" || !token.IsIdentifier(s) {
		return false
	}
	return true
}
