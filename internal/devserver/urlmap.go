// Package devserver implements the unbundled dev-serving pipeline: resolve
// → load → transpile → plugin-transform → import-rewrite → cache-by-URL,
// plus dependency pre-bundling and the HMR module graph it feeds.
package devserver

import (
	"path"
	"strings"
)

const (
	PrefixModules   = "/@modules/"
	PrefixStyle     = "/@style/"
	HMRClientURL    = "/@hmr-client"
	ReactRefreshURL = "/@react-refresh"
)

var servableExtensions = []string{"", ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts", ".json"}

// transpileExtensions are the extensions that must pass through the
// compiler backend before being servable as JS.
var transpileExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".jsx": true, ".mts": true, ".cts": true,
}

func needsTranspile(urlPath string) bool {
	return transpileExtensions[path.Ext(urlPath)]
}

func isCSS(urlPath string) bool  { return path.Ext(urlPath) == ".css" }
func isJSON(urlPath string) bool { return path.Ext(urlPath) == ".json" }

// rootRelativeURL converts an absolute filesystem path under projectRoot
// into the root-relative URL the browser requests it by.
func rootRelativeURL(projectRoot, absPath string) string {
	rel := strings.TrimPrefix(absPath, projectRoot)
	rel = strings.TrimPrefix(rel, string('/'))
	rel = strings.ReplaceAll(rel, "\\", "/")
	return "/" + rel
}

// sanitizePackageName turns a bare specifier (possibly scoped, possibly a
// deep subpath) into a filesystem-safe name for /@modules/ and the
// pre-bundle cache directory.
func sanitizePackageName(specifier string) string {
	name := specifier
	if strings.HasPrefix(specifier, "@") {
		parts := strings.SplitN(specifier, "/", 3)
		if len(parts) >= 2 {
			name = parts[0] + "/" + parts[1] // keep @scope/pkg, drop any deeper subpath
		}
	} else if idx := strings.Index(specifier, "/"); idx >= 0 {
		name = specifier[:idx]
	}
	return strings.ReplaceAll(name, "/", "__")
}
