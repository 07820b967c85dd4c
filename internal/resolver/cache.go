package resolver

import (
	"strings"
	"sync"
)

// cacheKey identifies one (specifier, importerDir) resolution.
type cacheKey struct {
	specifier   string
	importerDir string
}

// Cache memoizes Resolve results; InvalidatePath purges the entries a
// changed file affects. The daemon resolves through a plain Resolver and
// does not use this cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*Result
}

func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*Result)}
}

func (c *Cache) Get(specifier, importerDir string) (*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[cacheKey{specifier, importerDir}]
	return r, ok
}

func (c *Cache) Put(specifier, importerDir string, result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{specifier, importerDir}] = result
}

// InvalidatePath purges every cached entry whose importer directory or
// resolved path equals changedPath, or whose resolved path sits under a
// changed node_modules/<pkg>/ subtree.
func (c *Cache) InvalidatePath(changedPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, result := range c.entries {
		if key.importerDir == changedPath || result.Path == changedPath || underChangedPackage(result.Path, changedPath) {
			delete(c.entries, key)
		}
	}
}

// underChangedPackage reports whether resolvedPath lives under the same
// node_modules/<pkg>/ subtree as changedPath.
func underChangedPackage(resolvedPath, changedPath string) bool {
	changedPkgDir, ok := packageSubtree(changedPath)
	if !ok {
		return false
	}
	return strings.HasPrefix(resolvedPath, changedPkgDir)
}

func packageSubtree(path string) (string, bool) {
	idx := strings.Index(path, "node_modules/")
	if idx == -1 {
		return "", false
	}
	rest := path[idx+len("node_modules/"):]
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) == 0 {
		return "", false
	}
	if strings.HasPrefix(parts[0], "@") && len(parts) > 1 {
		return path[:idx] + "node_modules/" + parts[0] + "/" + parts[1] + "/", true
	}
	return path[:idx] + "node_modules/" + parts[0] + "/", true
}

// CachedResolver wraps a Resolver with a Cache, memoizing successful
// resolutions only (failures are not cached, so a package that appears
// later resolves correctly next time).
type CachedResolver struct {
	*Resolver
	cache *Cache
}

func NewCached(r *Resolver, cache *Cache) *CachedResolver {
	return &CachedResolver{Resolver: r, cache: cache}
}

func (c *CachedResolver) Resolve(specifier, importerDir string, conditions []string) (*Result, error) {
	if cached, ok := c.cache.Get(specifier, importerDir); ok {
		return cached, nil
	}
	result, err := c.Resolver.Resolve(specifier, importerDir, conditions)
	if err != nil {
		return nil, err
	}
	c.cache.Put(specifier, importerDir, result)
	return result, nil
}
