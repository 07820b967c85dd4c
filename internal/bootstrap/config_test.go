package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultChannel, cfg.Channel)
	assert.Equal(t, "", cfg.CacheDir)
}

func TestLoad_ParsesChannelAndCacheDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".howth"), 0o755))
	content := "channel: nightly\ncache_dir: .howth/cache\n"
	require.NoError(t, os.WriteFile(Path(dir), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "nightly", cfg.Channel)
	assert.Equal(t, filepath.Join(dir, ".howth", "cache"), cfg.CacheDir)
}

func TestLoad_BlankChannelFillsDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".howth"), 0o755))
	require.NoError(t, os.WriteFile(Path(dir), []byte("cache_dir: /tmp/x\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultChannel, cfg.Channel)
}

func TestSave_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, &Config{Channel: "dev", CacheDir: "cache"}))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Channel)
}
