// Package resolver implements specifier resolution against the filesystem:
// bare-specifier node_modules walk-up, package.json exports/imports
// condition matching, and relative/absolute/builtin specifiers.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	howtherrors "github.com/jschatz1/howth/internal/errors"
	"github.com/jschatz1/howth/internal/pkgjson"
)

// Format is the module format a resolved file should be loaded as.
type Format string

const (
	FormatESM     Format = "esm"
	FormatCJS     Format = "cjs"
	FormatBuiltin Format = "builtin"
)

// Result is a specifier's resolution outcome.
type Result struct {
	Path   string
	Format Format
}

// DefaultConditionsESM and DefaultConditionsCJS are the default condition
// priority orders for ESM and CJS importer contexts.
var (
	DefaultConditionsESM = []string{"import", "default", "require"}
	DefaultConditionsCJS = []string{"require", "default", "import"}
)

var resolveExtensions = []string{"", ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts", ".json"}

// nodeBuiltins is the small set of Node builtin module names this resolver
// recognizes as non-filesystem specifiers; howth's target is browser/Vite-
// style serving, so builtins resolve as external markers rather than files.
var nodeBuiltins = map[string]bool{
	"assert": true, "buffer": true, "crypto": true, "events": true, "fs": true,
	"http": true, "https": true, "net": true, "os": true, "path": true,
	"process": true, "stream": true, "url": true, "util": true, "zlib": true,
}

// Resolver resolves specifiers relative to an importer directory, memoizing
// package.json reads via the shared pkgjson.Cache.
type Resolver struct {
	Manifests *pkgjson.Cache
	ProjectRoot string
}

func New(manifests *pkgjson.Cache, projectRoot string) *Resolver {
	return &Resolver{Manifests: manifests, ProjectRoot: projectRoot}
}

// Resolve resolves specifier as imported from a file in importerDir, using
// conditions as the condition preference order (caller picks
// DefaultConditionsESM/CJS or a custom order with user conditions spliced
// in, since user-declared conditions take precedence over the defaults).
func (r *Resolver) Resolve(specifier, importerDir string, conditions []string) (*Result, error) {
	switch {
	case strings.HasPrefix(specifier, "node:"):
		return &Result{Path: specifier, Format: FormatBuiltin}, nil
	case nodeBuiltins[specifier]:
		return &Result{Path: specifier, Format: FormatBuiltin}, nil
	case strings.HasPrefix(specifier, "#"):
		return r.resolveImportsSpecifier(specifier, importerDir, conditions)
	case strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../"):
		path, err := resolveFileOrIndex(filepath.Join(importerDir, specifier))
		if err != nil {
			return nil, notFound(specifier, err)
		}
		return &Result{Path: path, Format: formatFor(path)}, nil
	case strings.HasPrefix(specifier, "/"):
		path, err := resolveFileOrIndex(specifier)
		if err != nil {
			return nil, notFound(specifier, err)
		}
		return &Result{Path: path, Format: formatFor(path)}, nil
	default:
		return r.resolveBareSpecifier(specifier, importerDir, conditions)
	}
}

func notFound(specifier string, cause error) error {
	return howtherrors.Validation(howtherrors.CodeResolveNotFound,
		fmt.Sprintf("cannot resolve %q", specifier), cause.Error())
}

func formatFor(path string) Format {
	if strings.HasSuffix(path, ".cjs") {
		return FormatCJS
	}
	return FormatESM
}

// resolveFileOrIndex appends resolveExtensions to base, then tries
// base/index.<ext>, returning the first path that exists as a regular file.
func resolveFileOrIndex(base string) (string, error) {
	for _, ext := range resolveExtensions {
		candidate := base + ext
		if isFile(candidate) {
			return candidate, nil
		}
	}
	for _, ext := range resolveExtensions[1:] {
		candidate := filepath.Join(base, "index"+ext)
		if isFile(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no file matched %s (or its index) with known extensions", base)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// splitBareSpecifier splits a bare specifier into its package name (scope-
// aware: "@scope/name") and the remaining subpath ("." if none).
func splitBareSpecifier(specifier string) (name, subpath string) {
	parts := strings.SplitN(specifier, "/", 3)
	if strings.HasPrefix(specifier, "@") && len(parts) >= 2 {
		name = parts[0] + "/" + parts[1]
		if len(parts) == 3 {
			subpath = "./" + parts[2]
		} else {
			subpath = "."
		}
		return
	}
	name = parts[0]
	if len(parts) > 1 {
		subpath = "./" + strings.Join(parts[1:], "/")
	} else {
		subpath = "."
	}
	return
}

// findPackageDir walks up from importerDir looking for
// node_modules/<name>, stopping once it passes r.ProjectRoot.
func (r *Resolver) findPackageDir(name, importerDir string) (string, error) {
	dir := importerDir
	for {
		candidate := filepath.Join(dir, "node_modules", name)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		if dir == r.ProjectRoot || dir == filepath.Dir(dir) {
			break
		}
		dir = filepath.Dir(dir)
	}
	return "", fmt.Errorf("package %q not found in any node_modules between %s and %s", name, importerDir, r.ProjectRoot)
}

func (r *Resolver) resolveBareSpecifier(specifier, importerDir string, conditions []string) (*Result, error) {
	name, subpath := splitBareSpecifier(specifier)

	pkgDir, err := r.findPackageDir(name, importerDir)
	if err != nil {
		return nil, howtherrors.Validation(howtherrors.CodeResolveNotFound,
			fmt.Sprintf("cannot resolve %q", specifier), err.Error())
	}

	manifest, err := r.Manifests.Load(pkgDir)
	if err != nil {
		path, ferr := resolveFileOrIndex(filepath.Join(pkgDir, strings.TrimPrefix(subpath, ".")))
		if ferr != nil {
			return nil, notFound(specifier, ferr)
		}
		return &Result{Path: path, Format: formatFor(path)}, nil
	}

	if manifest.Exports != nil {
		matched, ok, err := ResolveExports(manifest.Exports, subpath, conditions)
		if err != nil {
			return nil, howtherrors.Validation(howtherrors.CodeResolveAmbiguous, err.Error(), specifier)
		}
		if ok {
			path := filepath.Join(pkgDir, matched)
			if !isFile(path) {
				return nil, notFound(specifier, fmt.Errorf("exports target %s does not exist", path))
			}
			return &Result{Path: path, Format: formatFor(path)}, nil
		}
		return nil, howtherrors.Validation(howtherrors.CodeResolveNotFound,
			fmt.Sprintf("no exports entry matches %q in %s", subpath, name), specifier)
	}

	if subpath != "." {
		path, err := resolveFileOrIndex(filepath.Join(pkgDir, strings.TrimPrefix(subpath, ".")))
		if err != nil {
			return nil, notFound(specifier, err)
		}
		return &Result{Path: path, Format: formatFor(path)}, nil
	}

	for _, field := range []string{manifest.Module, manifest.Main} {
		if field == "" {
			continue
		}
		if path, err := resolveFileOrIndex(filepath.Join(pkgDir, field)); err == nil {
			return &Result{Path: path, Format: formatFor(path)}, nil
		}
	}

	path, err := resolveFileOrIndex(filepath.Join(pkgDir, "index"))
	if err != nil {
		return nil, notFound(specifier, err)
	}
	return &Result{Path: path, Format: formatFor(path)}, nil
}

// resolveImportsSpecifier resolves a "#"-prefixed specifier via the nearest
// package.json's "imports" field.
func (r *Resolver) resolveImportsSpecifier(specifier, importerDir string, conditions []string) (*Result, error) {
	pkgDir, manifest, err := r.nearestManifest(importerDir)
	if err != nil {
		return nil, notFound(specifier, err)
	}
	if manifest.Imports == nil {
		return nil, notFound(specifier, fmt.Errorf("package %s has no imports field", pkgDir))
	}

	matched, ok, err := ResolveExports(manifest.Imports, specifier, conditions)
	if err != nil {
		return nil, howtherrors.Validation(howtherrors.CodeResolveAmbiguous, err.Error(), specifier)
	}
	if !ok {
		return nil, notFound(specifier, fmt.Errorf("no imports entry matches %q", specifier))
	}

	path := filepath.Join(pkgDir, matched)
	if !isFile(path) {
		return nil, notFound(specifier, fmt.Errorf("imports target %s does not exist", path))
	}
	return &Result{Path: path, Format: formatFor(path)}, nil
}

func (r *Resolver) nearestManifest(dir string) (string, *pkgjson.Manifest, error) {
	for {
		if isFile(filepath.Join(dir, "package.json")) {
			m, err := r.Manifests.Load(dir)
			return dir, m, err
		}
		if dir == r.ProjectRoot || dir == filepath.Dir(dir) {
			break
		}
		dir = filepath.Dir(dir)
	}
	return "", nil, fmt.Errorf("no package.json found above %s", dir)
}
