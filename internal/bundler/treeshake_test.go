package bundler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jschatz1/howth/internal/modulegraph"
)

func TestUsedExports_TracksNamedImportAcrossTransitiveGraph(t *testing.T) {
	graph := g(
		&modulegraph.Module{ID: 0, Path: "entry.js", StaticDeps: []int{1}, SideEffects: true,
			ImportNames: map[int][]string{1: {"foo"}}},
		&modulegraph.Module{ID: 1, Path: "lib.js", SideEffects: false},
	)
	used := UsedExports(graph, 0)
	assert.True(t, used[1]["foo"])
	assert.False(t, used[1]["bar"])
}

func TestUsedExports_NamespaceImportMarksEverythingUsed(t *testing.T) {
	graph := g(
		&modulegraph.Module{ID: 0, Path: "entry.js", StaticDeps: []int{1}, SideEffects: true,
			ImportNames: map[int][]string{1: {"*"}}},
		&modulegraph.Module{ID: 1, Path: "lib.js", SideEffects: false},
	)
	used := UsedExports(graph, 0)
	assert.True(t, IsExportUsed(graph.Modules[1], used[1], "anything"))
}

func TestIsExportUsed_SideEffectfulModuleAlwaysRetained(t *testing.T) {
	mod := &modulegraph.Module{SideEffects: true}
	assert.True(t, IsExportUsed(mod, map[string]bool{}, "unused"))
}

func TestIsExportUsed_SideEffectFreeUnusedExportDropped(t *testing.T) {
	mod := &modulegraph.Module{SideEffects: false}
	assert.False(t, IsExportUsed(mod, map[string]bool{"foo": true}, "bar"))
}
