package install

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jschatz1/howth/internal/lockfile"
	"github.com/jschatz1/howth/internal/npmrc"
)

func buildTarball(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: "package/" + name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func integrityOfBytes(data []byte) string {
	sum := sha512.Sum512(data)
	return "sha512-" + base64.StdEncoding.EncodeToString(sum[:])
}

func TestInstall_FreshResolveWritesLockfileAndLinksPackage(t *testing.T) {
	tarball := buildTarball(t, map[string]string{"index.js": "module.exports = {}"})
	integrity := integrityOfBytes(tarball)

	mux := http.NewServeMux()
	var tarballURL string
	mux.HandleFunc("/leftpad", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": "leftpad",
			"versions": map[string]any{
				"1.3.0": map[string]any{
					"name": "leftpad", "version": "1.3.0",
					"dist": map[string]any{"tarball": tarballURL, "integrity": integrity},
				},
			},
		})
	})
	mux.HandleFunc("/leftpad.tgz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(tarball)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	tarballURL = srv.URL + "/leftpad.tgz"

	cwd := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, "package.json"),
		[]byte(`{"name":"demo","version":"1.0.0","dependencies":{"leftpad":"^1.0.0"}}`), 0o644))

	cfg := &npmrc.Config{DefaultRegistry: srv.URL + "/", ScopedRegistries: map[string]string{}, HostTokens: map[string]string{}}
	in, err := New(t.TempDir(), cfg)
	require.NoError(t, err)

	lf, err := in.Install(context.Background(), Options{CWD: cwd})
	require.NoError(t, err)
	assert.Contains(t, lf.Packages, "leftpad@1.3.0")

	linkTarget, err := os.Readlink(filepath.Join(cwd, "node_modules", "leftpad"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(linkTarget, "index.js"))
	assert.FileExists(t, filepath.Join(cwd, lockfile.FileName))
}

func TestInstall_FrozenLockfileMissingIsValidationError(t *testing.T) {
	cwd := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, "package.json"),
		[]byte(`{"name":"demo","dependencies":{"leftpad":"^1.0.0"}}`), 0o644))

	cfg := &npmrc.Config{DefaultRegistry: "https://registry.npmjs.org/"}
	in, err := New(t.TempDir(), cfg)
	require.NoError(t, err)

	_, err = in.Install(context.Background(), Options{CWD: cwd, FrozenLockfile: true})
	assert.Error(t, err)
}

func TestInstall_FrozenLockfileMissingRequiredPackageFails(t *testing.T) {
	cwd := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, "package.json"),
		[]byte(`{"name":"demo","dependencies":{"leftpad":"^1.0.0"}}`), 0o644))

	lf := lockfile.New("demo", "1.0.0")
	require.NoError(t, lockfile.Save(cwd, lf))

	cfg := &npmrc.Config{DefaultRegistry: "https://registry.npmjs.org/"}
	in, err := New(t.TempDir(), cfg)
	require.NoError(t, err)

	_, err = in.Install(context.Background(), Options{CWD: cwd, FrozenLockfile: true})
	assert.Error(t, err)
}
