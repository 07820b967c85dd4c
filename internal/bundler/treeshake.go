package bundler

import "github.com/jschatz1/howth/internal/modulegraph"

const namespaceImport = "*"

// UsedExports computes, for every module reachable from entry, the set of
// exported names actually imported by its consumers transitively. A module
// whose used set contains namespaceImport must keep every export (some
// consumer does `import * as m from ...`).
func UsedExports(g *modulegraph.Graph, entry int) map[int]map[string]bool {
	used := make(map[int]map[string]bool)
	visited := make(map[int]bool)

	var visit func(id int)
	visit = func(id int) {
		if visited[id] {
			return
		}
		visited[id] = true

		mod := g.Modules[id]
		for _, dep := range mod.StaticDeps {
			if used[dep] == nil {
				used[dep] = make(map[string]bool)
			}
			for _, name := range mod.ImportNames[dep] {
				used[dep][name] = true
			}
			visit(dep)
		}
		for _, dep := range mod.DynamicDeps {
			// a dynamically imported module is its own chunk entry: treat it
			// as fully used, since its export surface crosses a chunk boundary
			if used[dep] == nil {
				used[dep] = make(map[string]bool)
			}
			used[dep][namespaceImport] = true
			visit(dep)
		}
	}
	visit(entry)

	if used[entry] == nil {
		used[entry] = make(map[string]bool)
	}
	used[entry][namespaceImport] = true // the entry's own exports are the bundle's public surface
	return used
}

// IsExportUsed reports whether name should be retained for module id, given
// its side-effect-free status and the transitively computed used-export
// sets. Side-effectful modules always retain every top-level statement.
func IsExportUsed(mod *modulegraph.Module, used map[string]bool, name string) bool {
	if mod.SideEffects {
		return true
	}
	if used[namespaceImport] {
		return true
	}
	return used[name]
}
