package devserver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jschatz1/howth/internal/modulegraph"
)

func writeProjectFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	abs := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	return abs
}

func TestCollectBareSpecifiers_FindsPackagesAcrossRelativeImports(t *testing.T) {
	root := t.TempDir()
	entry := writeProjectFile(t, root, "src/main.tsx", `
import "./app";
import React from "react";
`)
	writeProjectFile(t, root, "src/app.tsx", `
import { z } from "zod";
import "./helper";
`)
	writeProjectFile(t, root, "src/helper.tsx", `
import lodash from "lodash";
`)

	bare := collectBareSpecifiers([]string{entry}, modulegraph.NewScanner())

	assert.True(t, bare["react"])
	assert.True(t, bare["zod"])
	assert.True(t, bare["lodash"])
	assert.Len(t, bare, 3)
}

func TestCollectBareSpecifiers_DoesNotDescendIntoBareSpecifierTargets(t *testing.T) {
	root := t.TempDir()
	entry := writeProjectFile(t, root, "src/main.tsx", `import "some-package";`)

	bare := collectBareSpecifiers([]string{entry}, modulegraph.NewScanner())

	assert.True(t, bare["some-package"])
}

func TestPreBundleCache_GetMissingReturnsFalse(t *testing.T) {
	cache := NewPreBundleCache()
	_, ok := cache.Get("react")
	assert.False(t, ok)
}

func TestPreBundleCache_SetThenGet(t *testing.T) {
	cache := NewPreBundleCache()
	cache.set("react", "export default {};")

	code, ok := cache.Get("react")
	require.True(t, ok)
	assert.Equal(t, "export default {};", code)
}

func TestResolveRelativeGuess_TriesExtensionsInOrder(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/helper.tsx", "export const x = 1;")
	from := filepath.Join(root, "src", "main.tsx")

	got := resolveRelativeGuess(from, "./helper")
	assert.Equal(t, filepath.Join(root, "src", "helper.tsx"), got)
}

func TestResolveRelativeGuess_MissingFileReturnsEmpty(t *testing.T) {
	root := t.TempDir()
	from := filepath.Join(root, "src", "main.tsx")

	got := resolveRelativeGuess(from, "./missing")
	assert.Equal(t, "", got)
}
