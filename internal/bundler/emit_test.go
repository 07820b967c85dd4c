package bundler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jschatz1/howth/internal/modulegraph"
)

func TestEmit_ConcatenatesModulesInOrder(t *testing.T) {
	graph := g(
		&modulegraph.Module{ID: 0, Path: "entry.js", StaticDeps: []int{1}, SideEffects: true},
		&modulegraph.Module{ID: 1, Path: "lib.js", SideEffects: true},
	)
	chunk := &Chunk{ID: "main", Modules: []int{1, 0}}
	src := func(path string) (string, error) {
		if path == "lib.js" {
			return "export const x = 1;", nil
		}
		return "export const y = x;", nil
	}

	code, err := Emit(graph, chunk, nil, FormatESM, src)
	require.NoError(t, err)
	assert.Less(t, indexOfStr(code, "lib.js"), indexOfStr(code, "entry.js"))
}

func TestEmit_StripsUnusedSideEffectFreeExport(t *testing.T) {
	graph := g(&modulegraph.Module{ID: 0, Path: "lib.js", SideEffects: false})
	chunk := &Chunk{ID: "main", Modules: []int{0}}
	src := func(path string) (string, error) { return "export const unused = 1;\nexport const used = 2;", nil }
	used := map[int]map[string]bool{0: {"used": true}}

	code, err := Emit(graph, chunk, used, FormatESM, src)
	require.NoError(t, err)
	assert.NotContains(t, code, "unused")
	assert.Contains(t, code, "used")
}

func TestEmit_IIFEFormatWrapsInClosure(t *testing.T) {
	graph := g(&modulegraph.Module{ID: 0, Path: "entry.js", SideEffects: true})
	chunk := &Chunk{ID: "main", Modules: []int{0}}
	src := func(path string) (string, error) { return "console.log(1);", nil }

	code, err := Emit(graph, chunk, nil, FormatIIFE, src)
	require.NoError(t, err)
	assert.Contains(t, code, "(function ()")
}

func indexOfStr(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
