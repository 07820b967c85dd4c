package hmr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraph_RecordImportTracksBothDirections(t *testing.T) {
	g := NewGraph()
	g.RecordImport("/src/App.tsx", "/src/Button.tsx")

	assert.Equal(t, []string{"/src/App.tsx"}, g.importersOf("/src/Button.tsx"))
}

func TestGraph_SetModuleImportsDropsStaleEdges(t *testing.T) {
	g := NewGraph()
	g.SetModuleImports("/src/App.tsx", []string{"/src/Old.tsx"})
	g.SetModuleImports("/src/App.tsx", []string{"/src/New.tsx"})

	assert.Empty(t, g.importersOf("/src/Old.tsx"))
	assert.Equal(t, []string{"/src/App.tsx"}, g.importersOf("/src/New.tsx"))
}

func TestGraph_ForgetDropsEdgesAndSelfAccepting(t *testing.T) {
	g := NewGraph()
	g.SetModuleImports("/src/App.tsx", []string{"/src/Button.tsx"})
	g.MarkSelfAccepting("/src/App.tsx")

	g.Forget("/src/App.tsx")

	assert.Empty(t, g.importersOf("/src/Button.tsx"))
	assert.False(t, g.isSelfAccepting("/src/App.tsx"))
}
