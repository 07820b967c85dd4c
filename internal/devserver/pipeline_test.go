package devserver

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jschatz1/howth/internal/bundler"
	"github.com/jschatz1/howth/internal/hmr"
	"github.com/jschatz1/howth/internal/pkgjson"
	"github.com/jschatz1/howth/internal/resolver"
	"github.com/jschatz1/howth/internal/transpile"
)

func newTestPipeline(t *testing.T, root string) *Pipeline {
	t.Helper()
	manifests := pkgjson.NewCache()
	r := resolver.New(manifests, root)
	plugins := bundler.NewPipeline()
	read := func(path string) ([]byte, error) { return os.ReadFile(path) }
	return NewPipeline(root, r, plugins, transpile.NewESBuildBackend(), read)
}

func TestPipeline_ServesPlainJSWithHMRPreamble(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/main.js", "console.log('hi');\n")
	p := newTestPipeline(t, root)

	entry, err := p.Serve("/src/main.js")
	require.NoError(t, err)
	assert.Contains(t, entry.Code, "createHotContext")
	assert.Contains(t, entry.Code, "console.log")
	assert.Equal(t, "application/javascript", entry.ContentType)
}

func TestPipeline_TranspilesTypeScript(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/main.ts", "const x: number = 1;\nexport default x;\n")
	p := newTestPipeline(t, root)

	entry, err := p.Serve("/src/main.ts")
	require.NoError(t, err)
	assert.NotContains(t, entry.Code, ": number")
}

func TestPipeline_RewritesBareSpecifierToModulesPrefix(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/main.js", "import React from \"react\";\nconsole.log(React);\n")
	p := newTestPipeline(t, root)

	entry, err := p.Serve("/src/main.js")
	require.NoError(t, err)
	assert.Contains(t, entry.Code, PrefixModules+"react")
}

func TestPipeline_ServesJSONWithNamedExports(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/data.json", `{"name": "howth", "version": 1}`)
	p := newTestPipeline(t, root)

	entry, err := p.Serve("/src/data.json")
	require.NoError(t, err)
	assert.Contains(t, entry.Code, `export const name`)
	assert.Contains(t, entry.Code, `export const version`)
	assert.Contains(t, entry.Code, "export default __json")
}

func TestPipeline_ServesCSSAsStyleInjector(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/App.css", "body { color: red; }")
	p := newTestPipeline(t, root)

	entry, err := p.Serve(PrefixStyle + "src/App.css")
	require.NoError(t, err)
	assert.Contains(t, entry.Code, "document.createElement('style')")
	assert.Contains(t, entry.Code, "color: red")
}

func TestPipeline_CachesByURLWithIncreasingTimestamp(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/main.js", "export const a = 1;\n")
	p := newTestPipeline(t, root)

	first, err := p.Serve("/src/main.js")
	require.NoError(t, err)

	writeProjectFile(t, root, "src/other.js", "export const b = 2;\n")
	second, err := p.Serve("/src/other.js")
	require.NoError(t, err)

	assert.Less(t, first.Timestamp, second.Timestamp)

	again, err := p.Serve("/src/main.js")
	require.NoError(t, err)
	assert.Equal(t, first.Timestamp, again.Timestamp, "cached entry should not be rebuilt")
}

func TestPipeline_InvalidateDropsCacheEntry(t *testing.T) {
	root := t.TempDir()
	abs := writeProjectFile(t, root, "src/main.js", "export const a = 1;\n")
	p := newTestPipeline(t, root)

	first, err := p.Serve("/src/main.js")
	require.NoError(t, err)

	url := p.Invalidate(abs)
	assert.Equal(t, "/src/main.js", url)

	require.NoError(t, os.WriteFile(abs, []byte("export const a = 2;\n"), 0o644))
	second, err := p.Serve("/src/main.js")
	require.NoError(t, err)
	assert.NotEqual(t, first.Timestamp, second.Timestamp)
}

func TestPipeline_InvalidateDropsCSSCacheEntryUnderStylePrefix(t *testing.T) {
	root := t.TempDir()
	abs := writeProjectFile(t, root, "src/App.css", "body { color: red; }")
	p := newTestPipeline(t, root)

	first, err := p.Serve(PrefixStyle + "src/App.css")
	require.NoError(t, err)

	url := p.Invalidate(abs)
	assert.Equal(t, PrefixStyle+"src/App.css", url)

	require.NoError(t, os.WriteFile(abs, []byte("body { color: blue; }"), 0o644))
	second, err := p.Serve(PrefixStyle + "src/App.css")
	require.NoError(t, err)
	assert.NotEqual(t, first.Timestamp, second.Timestamp, "stale style-injector module should be evicted on CSS change")
}

func TestPipeline_RecordsHMRGraphEdges(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/App.tsx", "import \"./Button\";\nexport const App = () => null;\n")
	writeProjectFile(t, root, "src/Button.tsx", "export const Button = () => null;\n")
	p := newTestPipeline(t, root)
	p.HMRGraph = hmr.NewGraph()

	_, err := p.Serve("/src/App.tsx")
	require.NoError(t, err)

	result := p.HMRGraph.Boundary("/src/Button.tsx", 1)
	assert.True(t, result.FullReload, "neither module declared an HMR boundary, so the graph should report a full reload")
}

func TestPrependHMRPreamble_ImportsHMRClientURL(t *testing.T) {
	out := prependHMRPreamble("/src/App.tsx", "export const x = 1;")
	assert.Contains(t, out, HMRClientURL)
	assert.Contains(t, out, "import.meta.hot")
}

func TestStyleInjectorModule_EscapesCSSContent(t *testing.T) {
	out := styleInjectorModule("/@style/src/App.css", `body::after { content: "x"; }`)
	assert.Contains(t, out, "__style.textContent")
	assert.Contains(t, out, "export default __css")
}

func TestJSONModule_SkipsInvalidIdentifierKeys(t *testing.T) {
	out := jsonModule(`{"valid_key": 1, "invalid-key": 2}`)
	assert.Contains(t, out, "export const valid_key")
	assert.NotContains(t, out, "export const invalid-key")
}
