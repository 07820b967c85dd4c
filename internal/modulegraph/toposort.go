package modulegraph

import "sort"

// TopoSort returns g's modules in dependency-before-dependent order (every
// module appears after everything it statically imports), computed with
// Kahn's algorithm over the reversed static-dependency edges. Ties among
// modules that become ready at the same step are broken by ascending id,
// making the emission order deterministic. Modules left over by a cycle are
// appended afterward, also in ascending-id order, rather than dropped.
func TopoSort(g *Graph) []int {
	n := len(g.Modules)
	remaining := make([]int, n) // count of not-yet-emitted static deps
	importedBy := make([][]int, n)
	for _, mod := range g.Modules {
		remaining[mod.ID] = len(mod.StaticDeps)
		for _, dep := range mod.StaticDeps {
			importedBy[dep] = append(importedBy[dep], mod.ID)
		}
	}

	ready := make([]int, 0)
	for id, count := range remaining {
		if count == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]int, 0, n)
	visited := make([]bool, n)

	for len(ready) > 0 {
		sort.Ints(ready)
		id := ready[0]
		ready = ready[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		order = append(order, id)

		for _, importer := range importedBy[id] {
			remaining[importer]--
			if remaining[importer] == 0 && !visited[importer] {
				ready = append(ready, importer)
			}
		}
	}

	if len(order) < n {
		leftover := make([]int, 0, n-len(order))
		for id := 0; id < n; id++ {
			if !visited[id] {
				leftover = append(leftover, id)
			}
		}
		sort.Ints(leftover)
		order = append(order, leftover...)
	}

	return order
}
