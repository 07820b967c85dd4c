package npmrc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ScopedRegistryAndToken(t *testing.T) {
	t.Setenv("MY_TOKEN", "secret123")
	dir := t.TempDir()
	content := "@acme:registry=https://npm.acme.internal/\n" +
		"//npm.acme.internal/:_authToken=${MY_TOKEN}\n" +
		"registry=https://registry.npmjs.org/\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".npmrc"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://npm.acme.internal/", cfg.RegistryFor("@acme/widget"))
	assert.Equal(t, "https://registry.npmjs.org/", cfg.RegistryFor("leftpad"))

	token, ok := cfg.TokenFor("https://npm.acme.internal/")
	require.True(t, ok)
	assert.Equal(t, "secret123", token)
}

func TestLoad_DefaultRegistryWhenNoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "https://registry.npmjs.org/", cfg.DefaultRegistry)
}

func TestLoad_ProjectWinsOverHome(t *testing.T) {
	projectDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".npmrc"),
		[]byte("registry=https://project-registry.example/\n"), 0o644))

	cfg, err := Load(projectDir)
	require.NoError(t, err)
	assert.Equal(t, "https://project-registry.example/", cfg.DefaultRegistry)
}
