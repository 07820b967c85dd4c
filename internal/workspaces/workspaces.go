// Package workspaces expands a root package.json's workspaces globs into
// discovered packages and links them into consumers' node_modules (spec
// §4.2 "Workspaces").
package workspaces

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jschatz1/howth/internal/pkgjson"
)

// Workspace is one discovered workspace package.
type Workspace struct {
	Name string
	Dir  string
}

// Discover expands root's workspace patterns and returns every directory
// under them that contains a package.json.
func Discover(root string, manifests *pkgjson.Cache) ([]Workspace, error) {
	rootManifest, err := manifests.Load(root)
	if err != nil {
		return nil, fmt.Errorf("load root package.json: %w", err)
	}

	patterns := rootManifest.WorkspacePatterns()
	if len(patterns) == 0 {
		return nil, nil
	}

	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var out []Workspace

	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("expand workspace pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			dir := filepath.Join(root, match)
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				continue
			}
			pkgPath := filepath.Join(dir, "package.json")
			if _, err := os.Stat(pkgPath); err != nil {
				continue
			}
			if seen[dir] {
				continue
			}
			seen[dir] = true

			manifest, err := manifests.Load(dir)
			if err != nil {
				return nil, fmt.Errorf("load workspace package.json at %s: %w", dir, err)
			}
			if manifest.Name == "" {
				continue
			}
			out = append(out, Workspace{Name: manifest.Name, Dir: dir})
		}
	}

	return out, nil
}

// Link creates a symlink under consumerDir/node_modules/<name> pointing at
// ws.Dir, used when a resolved specifier names a workspace package (spec
// §4.2: "resolution of a workspace-package specifier creates a symlink").
func Link(consumerDir string, ws Workspace) error {
	nodeModules := filepath.Join(consumerDir, "node_modules")
	if err := os.MkdirAll(filepath.Dir(filepath.Join(nodeModules, ws.Name)), 0o755); err != nil {
		return err
	}

	linkPath := filepath.Join(nodeModules, ws.Name)
	if existing, err := os.Readlink(linkPath); err == nil {
		if existing == ws.Dir {
			return nil
		}
		if err := os.Remove(linkPath); err != nil {
			return err
		}
	} else if _, statErr := os.Lstat(linkPath); statErr == nil {
		if err := os.RemoveAll(linkPath); err != nil {
			return err
		}
	}

	return os.Symlink(ws.Dir, linkPath)
}
