package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveExports_StringAppliesToDot(t *testing.T) {
	path, ok, err := ResolveExports("./index.js", ".", DefaultConditionsESM)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "./index.js", path)

	_, ok, err = ResolveExports("./index.js", "./sub", DefaultConditionsESM)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveExports_ConditionPriority(t *testing.T) {
	value := map[string]any{
		"import":  "./esm/index.js",
		"require": "./cjs/index.js",
		"default": "./fallback.js",
	}

	path, ok, err := ResolveExports(value, ".", DefaultConditionsESM)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "./esm/index.js", path)

	path, ok, err = ResolveExports(value, ".", DefaultConditionsCJS)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "./cjs/index.js", path)
}

func TestResolveExports_UserConditionTakesPrecedence(t *testing.T) {
	value := map[string]any{
		"browser": "./browser.js",
		"default": "./index.js",
	}
	path, ok, err := ResolveExports(value, ".", []string{"browser", "default"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "./browser.js", path)
}

func TestResolveExports_SubpathLongestPrefixMatch(t *testing.T) {
	value := map[string]any{
		"./feature/*":      "./dist/feature/*.js",
		"./feature/extra/*": "./dist/feature-extra/*.js",
	}

	path, ok, err := ResolveExports(value, "./feature/extra/thing", DefaultConditionsESM)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "./dist/feature-extra/thing.js", path)
}

func TestResolveExports_ExactSubpathBeatsWildcard(t *testing.T) {
	value := map[string]any{
		"./*":       "./dist/*.js",
		"./special": "./dist/special-cased.js",
	}

	path, ok, err := ResolveExports(value, "./special", DefaultConditionsESM)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "./dist/special-cased.js", path)
}

func TestResolveExports_RecursiveConditionsInsideSubpath(t *testing.T) {
	value := map[string]any{
		"./sub": map[string]any{
			"import": "./dist/sub.mjs",
			"require": "./dist/sub.cjs",
		},
	}
	path, ok, err := ResolveExports(value, "./sub", DefaultConditionsCJS)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "./dist/sub.cjs", path)
}

func TestResolveExports_NoMatch(t *testing.T) {
	value := map[string]any{"./only": "./dist/only.js"}
	_, ok, err := ResolveExports(value, "./missing", DefaultConditionsESM)
	require.NoError(t, err)
	assert.False(t, ok)
}
