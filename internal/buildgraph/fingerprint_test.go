package buildgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandGlob_SortedAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "b.ts"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "a.ts"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "nested", "c.ts"), []byte("c"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "skip.js"), []byte("x"), 0o644))

	matches, err := ExpandGlob(dir, "src/**/*.ts")
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for _, m := range matches {
		assert.True(t, filepath.IsAbs(m))
	}
	assert.Equal(t, filepath.Join(dir, "src/a.ts"), matches[0])
}

func TestCompositeFingerprint_Deterministic(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "index.ts")
	require.NoError(t, os.WriteFile(file, []byte("export const x = 1"), 0o644))

	node := &BuildNode{
		ID:     "script:build",
		Inputs: []BuildInput{FileInput{Path: file}, EnvInput{Name: "NODE_ENV"}},
		Command: &CommandSpec{
			Argv:         []string{"sh", "-c", "tsc"},
			EnvAllowlist: []string{"PATH", "HOME"},
		},
	}

	h1, err := CompositeFingerprint(node, nil)
	require.NoError(t, err)
	h2, err := CompositeFingerprint(node, nil)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	require.NoError(t, os.WriteFile(file, []byte("export const x = 2"), 0o644))
	h3, err := CompositeFingerprint(node, nil)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestCompositeFingerprint_EnvAllowlistOrderIndependent(t *testing.T) {
	node1 := &BuildNode{ID: "n", Command: &CommandSpec{Argv: []string{"x"}, EnvAllowlist: []string{"PATH", "HOME"}}}
	node2 := &BuildNode{ID: "n", Command: &CommandSpec{Argv: []string{"x"}, EnvAllowlist: []string{"HOME", "PATH"}}}

	h1, err := CompositeFingerprint(node1, nil)
	require.NoError(t, err)
	h2, err := CompositeFingerprint(node2, nil)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestCompositeFingerprint_MissingFileHashesDeterministically(t *testing.T) {
	node := &BuildNode{ID: "n", Inputs: []BuildInput{FileInput{Path: "/does/not/exist.ts"}}}

	h1, err := CompositeFingerprint(node, nil)
	require.NoError(t, err)
	h2, err := CompositeFingerprint(node, nil)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestCompositeFingerprint_UpstreamInputRequiresResolver(t *testing.T) {
	node := &BuildNode{ID: "n", Inputs: []BuildInput{UpstreamInput{NodeID: "script:build", OutputIndex: 0}}}
	_, err := CompositeFingerprint(node, nil)
	assert.Error(t, err)
}

func TestComputeOutputFingerprint_AndMatches(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bundle.js")
	require.NoError(t, os.WriteFile(out, []byte("console.log(1)"), 0o644))

	fp, err := ComputeOutputFingerprint(out)
	require.NoError(t, err)
	assert.True(t, OutputMatches(out, fp))

	require.NoError(t, os.WriteFile(out, []byte("console.log(2)"), 0o644))
	assert.False(t, OutputMatches(out, fp))
}

func TestOutputMatches_MissingFile(t *testing.T) {
	assert.False(t, OutputMatches("/does/not/exist.js", OutputFingerprint{}))
}
