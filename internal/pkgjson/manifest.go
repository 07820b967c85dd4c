// Package pkgjson parses and memoizes package.json manifests.
//
// A manifest is parsed once per absolute directory and cached for the
// lifetime of the process (daemon) or CLI invocation, rather than
// re-read from disk on every lookup.
package pkgjson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ExportsValue is the raw `exports`/`imports` JSON value: a string, a
// subpath map, a conditions map, or nested combinations of those. Go's
// encoding/json already decodes this into `any` (string | map[string]any);
// this type exists only to make call sites self-documenting.
type ExportsValue = any

// Manifest is the subset of package.json fields howth consumes.
type Manifest struct {
	Dir                  string            `json:"-"`
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Type                 string            `json:"type"` // "module" | "commonjs" | ""
	Main                 string            `json:"main"`
	Module               string            `json:"module"`
	Scripts              map[string]string `json:"scripts"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	Bin                  json.RawMessage   `json:"bin"`
	Workspaces           json.RawMessage   `json:"workspaces"` // []string or {packages:[]string}
	Exports              ExportsValue      `json:"exports"`
	Imports              ExportsValue      `json:"imports"`
	SideEffects          json.RawMessage   `json:"sideEffects"` // bool or []string
}

// WorkspacePatterns normalizes the `workspaces` field into a glob pattern
// list regardless of whether it was a bare array or `{packages: [...]}`.
func (m *Manifest) WorkspacePatterns() []string {
	if len(m.Workspaces) == 0 {
		return nil
	}
	var arr []string
	if err := json.Unmarshal(m.Workspaces, &arr); err == nil {
		return arr
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(m.Workspaces, &obj); err == nil {
		return obj.Packages
	}
	return nil
}

// IsSideEffectFree reports whether the manifest declares sideEffects: false
// or lists path as side-effect free in a sideEffects array. path is relative to the package directory, forward-slashed.
func (m *Manifest) IsSideEffectFree(relPath string) bool {
	if len(m.SideEffects) == 0 {
		return false
	}
	var asBool bool
	if err := json.Unmarshal(m.SideEffects, &asBool); err == nil {
		return !asBool
	}
	var asList []string
	if err := json.Unmarshal(m.SideEffects, &asList); err == nil {
		for _, pattern := range asList {
			if matched, _ := filepath.Match(pattern, relPath); matched {
				return false
			}
		}
		return true
	}
	return false
}

// AllDependencies merges dependencies + devDependencies + peerDependencies +
// optionalDependencies into one name->range map, in that precedence order
// (a name present in more than one section keeps the first-seen range).
func (m *Manifest) AllDependencies() map[string]string {
	out := make(map[string]string, len(m.Dependencies))
	merge := func(src map[string]string) {
		for name, rng := range src {
			if _, exists := out[name]; !exists {
				out[name] = rng
			}
		}
	}
	merge(m.Dependencies)
	merge(m.DevDependencies)
	merge(m.PeerDependencies)
	merge(m.OptionalDependencies)
	return out
}

// Cache memoizes manifest parses by absolute directory path.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Manifest
}

// NewCache creates an empty manifest cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Manifest)}
}

// Load reads and parses dir/package.json, returning the cached result on
// subsequent calls for the same directory.
func (c *Cache) Load(dir string) (*Manifest, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest dir: %w", err)
	}

	c.mu.RLock()
	if m, ok := c.entries[abs]; ok {
		c.mu.RUnlock()
		return m, nil
	}
	c.mu.RUnlock()

	path := filepath.Join(abs, "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	m.Dir = abs

	c.mu.Lock()
	c.entries[abs] = &m
	c.mu.Unlock()
	return &m, nil
}

// Invalidate drops the cached manifest for dir, forcing a re-read on next
// Load. Called by the daemon's watcher-driven invalidation when
// a package.json changes.
func (c *Cache) Invalidate(dir string) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, abs)
	c.mu.Unlock()
}
