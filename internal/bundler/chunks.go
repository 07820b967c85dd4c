// Package bundler turns a modulegraph.Graph into one or more output chunks:
// split points at dynamic-import boundaries, per-chunk tree-shaking, and
// final code emission in ESM/CJS/IIFE. Chunk planning is implemented
// directly over howth's own module graph rather than delegating to
// esbuild's bundler.
package bundler

import (
	"sort"

	"github.com/jschatz1/howth/internal/modulegraph"
)

// Chunk is one emittable output unit: a topologically-ordered module list
// plus the other chunks it depends on being loaded first.
type Chunk struct {
	ID        string
	Entry     int // the module id this chunk is rooted at
	Async     bool
	Modules   []int // topological order, dependency-before-dependent
	DependsOn []string
}

// Plan is a built chunk graph: one main chunk plus zero or more async
// chunks, one per dynamic-import split point.
type Plan struct {
	Main   *Chunk
	Async  []*Chunk
	Shared []int // module ids reachable from ≥ 2 chunks' entry sets
}

// PlanChunks computes split points (every module targeted by any dynamic
// import in g) and builds the main chunk plus one async chunk per split
// point. Per the current policy, shared modules are inlined into each
// chunk that reaches them rather than hoisted into a separate chunk.
func PlanChunks(g *modulegraph.Graph, entry int) *Plan {
	splitPoints := make(map[int]bool)
	for _, mod := range g.Modules {
		for _, dep := range mod.DynamicDeps {
			splitPoints[dep] = true
		}
	}

	main := &Chunk{ID: "main", Entry: entry, Modules: reachableStatic(g, entry, splitPoints)}

	splitIDs := make([]int, 0, len(splitPoints))
	for id := range splitPoints {
		splitIDs = append(splitIDs, id)
	}
	sort.Ints(splitIDs)

	async := make([]*Chunk, 0, len(splitIDs))
	for _, sp := range splitIDs {
		others := make(map[int]bool, len(splitPoints))
		for id := range splitPoints {
			if id != sp {
				others[id] = true
			}
		}
		chunk := &Chunk{
			ID:        chunkID(g.Modules[sp].Path),
			Entry:     sp,
			Async:     true,
			Modules:   reachableStatic(g, sp, others),
			DependsOn: []string{"main"},
		}
		async = append(async, chunk)
	}

	return &Plan{Main: main, Async: async, Shared: computeShared(main, async)}
}

// reachableStatic walks static edges from root in topological (post-order)
// order, never entering a module in stopAt unless it is root itself.
func reachableStatic(g *modulegraph.Graph, root int, stopAt map[int]bool) []int {
	visited := make(map[int]bool)
	var order []int

	var visit func(id int)
	visit = func(id int) {
		if visited[id] {
			return
		}
		if id != root && stopAt[id] {
			return
		}
		visited[id] = true
		for _, dep := range g.Modules[id].StaticDeps {
			visit(dep)
		}
		order = append(order, id)
	}
	visit(root)
	return order
}

func chunkID(path string) string {
	base := path
	if idx := lastSlash(base); idx >= 0 {
		base = base[idx+1:]
	}
	return "chunk-" + base
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' || s[i] == '\\' {
			return i
		}
	}
	return -1
}

func computeShared(main *Chunk, async []*Chunk) []int {
	counts := make(map[int]int)
	count := func(modules []int) {
		seen := make(map[int]bool)
		for _, id := range modules {
			if !seen[id] {
				seen[id] = true
				counts[id]++
			}
		}
	}
	count(main.Modules)
	for _, c := range async {
		count(c.Modules)
	}

	var shared []int
	for id, n := range counts {
		if n >= 2 {
			shared = append(shared, id)
		}
	}
	sort.Ints(shared)
	return shared
}
