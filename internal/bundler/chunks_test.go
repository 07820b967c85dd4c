package bundler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jschatz1/howth/internal/modulegraph"
)

func g(modules ...*modulegraph.Module) *modulegraph.Graph {
	return &modulegraph.Graph{Modules: modules}
}

func TestPlanChunks_NoDynamicImportsProducesOnlyMainChunk(t *testing.T) {
	graph := g(
		&modulegraph.Module{ID: 0, Path: "entry.js", StaticDeps: []int{1}},
		&modulegraph.Module{ID: 1, Path: "lib.js"},
	)
	plan := PlanChunks(graph, 0)
	assert.Empty(t, plan.Async)
	assert.ElementsMatch(t, []int{0, 1}, plan.Main.Modules)
}

func TestPlanChunks_DynamicImportCreatesAsyncChunk(t *testing.T) {
	graph := g(
		&modulegraph.Module{ID: 0, Path: "entry.js", DynamicDeps: []int{1}},
		&modulegraph.Module{ID: 1, Path: "lazy.js"},
	)
	plan := PlanChunks(graph, 0)
	assert.NotContains(t, plan.Main.Modules, 1)
	assert.Len(t, plan.Async, 1)
	assert.Equal(t, []int{1}, plan.Async[0].Modules)
	assert.Equal(t, []string{"main"}, plan.Async[0].DependsOn)
}

func TestPlanChunks_SharedModuleRecordedButInlinedInBothChunks(t *testing.T) {
	graph := g(
		&modulegraph.Module{ID: 0, Path: "entry.js", StaticDeps: []int{2}, DynamicDeps: []int{1}},
		&modulegraph.Module{ID: 1, Path: "lazy.js", StaticDeps: []int{2}},
		&modulegraph.Module{ID: 2, Path: "shared.js"},
	)
	plan := PlanChunks(graph, 0)
	assert.Contains(t, plan.Main.Modules, 2)
	assert.Contains(t, plan.Async[0].Modules, 2)
	assert.Contains(t, plan.Shared, 2)
}

func TestPlanChunks_SecondSplitPointDoesNotPullInFirstSplitPoint(t *testing.T) {
	graph := g(
		&modulegraph.Module{ID: 0, Path: "entry.js", DynamicDeps: []int{1, 2}},
		&modulegraph.Module{ID: 1, Path: "a.js", StaticDeps: []int{2}},
		&modulegraph.Module{ID: 2, Path: "b.js"},
	)
	plan := PlanChunks(graph, 0)
	var chunkA *Chunk
	for _, c := range plan.Async {
		if c.Entry == 1 {
			chunkA = c
		}
	}
	if assert.NotNil(t, chunkA) {
		assert.NotContains(t, chunkA.Modules, 2)
	}
}
