package devserver

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/jschatz1/howth/internal/modulegraph"
)

// PreBundleCache holds one pre-bundled ESM chunk per unique bare package
// specifier reachable from the project's entries, keyed by the sanitized
// package name served at /@modules/<name>.
//
// Pre-bundling exists so the dev server never has to resolve and transform
// an npm package's own internal module graph (often CJS, often thousands of
// files) on every request: each package is flattened into a single ESM
// module once, up front.
type PreBundleCache struct {
	mu      sync.RWMutex
	bundles map[string]string
}

func NewPreBundleCache() *PreBundleCache {
	return &PreBundleCache{bundles: make(map[string]string)}
}

func (c *PreBundleCache) Get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	code, ok := c.bundles[name]
	return code, ok
}

func (c *PreBundleCache) set(name, code string) {
	c.mu.Lock()
	c.bundles[name] = code
	c.mu.Unlock()
}

// Warm scans every source file reachable from entries by following
// relative/absolute specifiers only, collects the unique bare specifiers
// those files import, and bundles each one into .howth/deps/<name>.js. A
// package that fails to bundle is logged and skipped; it never aborts the
// others or the dev server's startup.
func Warm(projectRoot string, entries []string, scanner *modulegraph.Scanner) (*PreBundleCache, error) {
	cache := NewPreBundleCache()
	depsDir := filepath.Join(projectRoot, ".howth", "deps")
	if err := os.MkdirAll(depsDir, 0o755); err != nil {
		return nil, fmt.Errorf("devserver: create %s: %w", depsDir, err)
	}

	bare := collectBareSpecifiers(entries, scanner)
	for name := range bare {
		outPath := filepath.Join(depsDir, sanitizePackageName(name)+".js")
		code, err := bundleDependency(name, projectRoot, outPath)
		if err != nil {
			log.Printf("devserver: pre-bundle %s: %v", name, err)
			continue
		}
		cache.set(sanitizePackageName(name), code)
	}
	return cache, nil
}

// collectBareSpecifiers walks every reachable project source file (relative
// and absolute specifiers only — node_modules is never descended into) and
// returns the set of bare specifiers those files reference.
func collectBareSpecifiers(entries []string, scanner *modulegraph.Scanner) map[string]bool {
	seen := make(map[string]bool)
	bare := make(map[string]bool)

	var visit func(path string)
	visit = func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true

		src, err := os.ReadFile(path)
		if err != nil {
			return
		}
		specs, err := scanner.Scan(path, src)
		if err != nil {
			return
		}

		for _, spec := range specs {
			if isRelativeOrAbsolute(spec.Value) {
				next := resolveRelativeGuess(path, spec.Value)
				if next != "" {
					visit(next)
				}
				continue
			}
			bare[spec.Value] = true
		}
	}

	for _, e := range entries {
		visit(e)
	}
	return bare
}

func isRelativeOrAbsolute(specifier string) bool {
	return len(specifier) > 0 && (specifier[0] == '.' || specifier[0] == '/')
}

// resolveRelativeGuess tries the candidate path as written, then with .ts,
// .tsx, .js, .jsx, .mjs and .cjs appended, in turn; it is intentionally simpler than resolver.Resolver (no
// exports/imports condition matching) since pre-bundle discovery only needs
// to keep walking project-local files, not resolve correctly in every edge
// case — resolver.Resolver remains the source of truth when actually
// serving a request.
func resolveRelativeGuess(fromFile, specifier string) string {
	base := filepath.Join(filepath.Dir(fromFile), specifier)
	for _, ext := range []string{"", ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"} {
		candidate := base + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// bundleDependency bundles a virtual "export * from '<name>';" entry into a
// single ESM chunk via esbuild, resolving name against the real
// node_modules tree rooted at projectRoot. No minification, no
// tree-shaking: the goal is one stable chunk per package, not a small one.
func bundleDependency(name, projectRoot, outPath string) (string, error) {
	result := api.Build(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   fmt.Sprintf("import * as __mod from %q;\nexport default __mod.default ?? __mod;\nexport * from %q;\n", name, name),
			ResolveDir: projectRoot,
			Loader:     api.LoaderJS,
		},
		Bundle:            true,
		Format:            api.FormatESModule,
		Platform:          api.PlatformBrowser,
		Target:            api.ESNext,
		Write:             false,
		MinifyWhitespace:  false,
		MinifyIdentifiers: false,
		MinifySyntax:      false,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", fmt.Errorf("esbuild: %s", result.Errors[0].Text)
	}
	if len(result.OutputFiles) == 0 {
		return "", fmt.Errorf("esbuild: no output for %s", name)
	}
	code := result.OutputFiles[0].Contents
	if err := os.WriteFile(outPath, code, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", outPath, err)
	}
	return string(code), nil
}
