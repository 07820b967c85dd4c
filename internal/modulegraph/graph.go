package modulegraph

import (
	"github.com/jschatz1/howth/internal/pkgjson"
	"github.com/jschatz1/howth/internal/resolver"
)

// Module is one interned node in the graph: a resolved absolute file path
// plus the ids of everything it statically and dynamically depends on.
type Module struct {
	ID          int
	Path        string
	Format      resolver.Format
	StaticDeps  []int
	DynamicDeps []int            // dynamic import() targets, the code-split points
	ImportNames map[int][]string // dep module id -> binding names imported from it, across all import statements
	Resolved    map[string]int   // raw specifier string (as written in source) -> resolved dep module id
	SideEffects bool             // conservative default true; false only when the owning package.json says so
}

// Graph is a DFS-built, dense-id-interned module dependency graph rooted at
// one or more entry points.
type Graph struct {
	Modules []*Module
	index   map[string]int // absolute path -> id, FIFO: first DFS visit wins the id
}

// Loader fetches a module's source text given its resolved absolute path.
type Loader func(path string) ([]byte, error)

// Builder walks entry points with the resolver and scanner to build a Graph.
type Builder struct {
	Resolver  *resolver.Resolver
	Scanner   *Scanner
	Manifests *pkgjson.Cache
	Load      Loader
	ESMConds  []string
}

func NewBuilder(r *resolver.Resolver, manifests *pkgjson.Cache, load Loader) *Builder {
	return &Builder{
		Resolver:  r,
		Scanner:   NewScanner(),
		Manifests: manifests,
		Load:      load,
		ESMConds:  resolver.DefaultConditionsESM,
	}
}

// Build performs a DFS from entries, interning each unique absolute path
// exactly once (first-visit wins the id) and permitting cycles: a module
// already on the current DFS stack is recorded as a dependency edge but not
// re-descended into.
func (b *Builder) Build(entries []string) (*Graph, error) {
	g := &Graph{index: make(map[string]int)}
	visiting := make(map[string]bool)

	var visit func(path string) (int, error)
	visit = func(path string) (int, error) {
		if id, ok := g.index[path]; ok {
			return id, nil
		}

		id := len(g.Modules)
		g.index[path] = id
		mod := &Module{ID: id, Path: path, SideEffects: true}
		g.Modules = append(g.Modules, mod)

		visiting[path] = true
		defer delete(visiting, path)

		src, err := b.Load(path)
		if err != nil {
			return 0, err
		}
		specs, err := b.Scanner.Scan(path, src)
		if err != nil {
			return 0, err
		}

		dir := dirOf(path)
		mod.SideEffects = b.isSideEffectful(path)

		for _, spec := range specs {
			result, err := b.Resolver.Resolve(spec.Value, dir, b.ESMConds)
			if err != nil {
				return 0, err
			}
			mod.Format = result.Format

			if visiting[result.Path] {
				// cyclic edge: record but don't re-descend (already on stack)
				depID, ok := g.index[result.Path]
				if !ok {
					depID = len(g.Modules)
					g.index[result.Path] = depID
					g.Modules = append(g.Modules, &Module{ID: depID, Path: result.Path, SideEffects: true})
				}
				appendDep(mod, depID, spec.Dynamic, spec.Names)
				mod.recordResolved(spec.Value, depID)
				continue
			}

			depID, err := visit(result.Path)
			if err != nil {
				return 0, err
			}
			appendDep(mod, depID, spec.Dynamic, spec.Names)
			mod.recordResolved(spec.Value, depID)
		}

		return id, nil
	}

	for _, entry := range entries {
		if _, err := visit(entry); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// recordResolved remembers which dep module a raw specifier string resolved
// to, so a downstream rewrite pass can turn "./foo" or "left-pad" back into
// the dep's interned id without re-running resolution.
func (mod *Module) recordResolved(specifier string, depID int) {
	if mod.Resolved == nil {
		mod.Resolved = make(map[string]int)
	}
	mod.Resolved[specifier] = depID
}

// IDFor returns the interned id a resolved absolute path was assigned
// during Build, or (0, false) if path was never visited.
func (g *Graph) IDFor(path string) (int, bool) {
	id, ok := g.index[path]
	return id, ok
}

func appendDep(mod *Module, depID int, dynamic bool, names []string) {
	if dynamic {
		mod.DynamicDeps = append(mod.DynamicDeps, depID)
	} else {
		mod.StaticDeps = append(mod.StaticDeps, depID)
	}
	if len(names) > 0 {
		if mod.ImportNames == nil {
			mod.ImportNames = make(map[int][]string)
		}
		mod.ImportNames[depID] = append(mod.ImportNames[depID], names...)
	}
}

// isSideEffectful consults the nearest package.json's sideEffects field; a
// module outside any manifest, or whose manifest doesn't declare
// sideEffects, is conservatively treated as side-effectful.
func (b *Builder) isSideEffectful(path string) bool {
	dir := dirOf(path)
	for {
		manifest, err := b.Manifests.Load(dir)
		if err == nil {
			rel := relFrom(manifest.Dir, path)
			return !manifest.IsSideEffectFree(rel)
		}
		parent := dirOf(dir)
		if parent == dir {
			return true
		}
		dir = parent
	}
}
