package devserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jschatz1/howth/internal/hmr"
)

func TestServer_ServesHMRClientRuntime(t *testing.T) {
	srv := NewServer(nil, NewPreBundleCache(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, HMRClientURL, nil)
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "createHotContext")
	assert.Equal(t, "application/javascript", w.Header().Get("Content-Type"))
}

func TestServer_ServesPreBundledModule(t *testing.T) {
	cache := NewPreBundleCache()
	cache.set("react", "export default {};")
	srv := NewServer(nil, cache, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, PrefixModules+"react", nil)
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "export default {};", w.Body.String())
}

func TestServer_MissingPreBundledModuleIs404(t *testing.T) {
	srv := NewServer(nil, NewPreBundleCache(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, PrefixModules+"missing-pkg", nil)
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_HMREndpointWithoutHubIs404(t *testing.T) {
	srv := NewServer(nil, NewPreBundleCache(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/__hmr", nil)
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_HMREndpointWithHubIsRoutedToHub(t *testing.T) {
	hub := hmr.NewHub(hmr.NewGraph())
	srv := NewServer(nil, NewPreBundleCache(), hub)

	server := httptest.NewServer(srv)
	defer server.Close()

	// A plain GET without the websocket handshake headers should fail the
	// upgrade (not panic, not 404 from the devserver's own fallback).
	resp, err := http.Get(server.URL + "/__hmr")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEqual(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ServesProjectModuleThroughPipeline(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/main.js", "export const a = 1;\n")
	pipeline := newTestPipeline(t, root)
	srv := NewServer(pipeline, NewPreBundleCache(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/src/main.js", nil)
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "createHotContext")
	assert.NotEmpty(t, w.Header().Get("Last-Modified"))
}
