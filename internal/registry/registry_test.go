package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jschatz1/howth/internal/npmrc"
)

const packumentJSON = `{
	"name": "leftpad",
	"versions": {
		"1.0.0": {"name":"leftpad","version":"1.0.0","dist":{"tarball":"https://example/leftpad-1.0.0.tgz"}},
		"1.2.0": {"name":"leftpad","version":"1.2.0","dist":{"tarball":"https://example/leftpad-1.2.0.tgz"}},
		"2.0.0": {"name":"leftpad","version":"2.0.0","dist":{"tarball":"https://example/leftpad-2.0.0.tgz"}},
		"2.1.0-beta.1": {"name":"leftpad","version":"2.1.0-beta.1","dist":{"tarball":"https://example/leftpad-2.1.0-beta.1.tgz"}}
	}
}`

func testClient(t *testing.T) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(packumentJSON))
	}))
	cfg := &npmrc.Config{DefaultRegistry: srv.URL + "/", ScopedRegistries: map[string]string{}, HostTokens: map[string]string{}}
	return NewClient(cfg), srv
}

func TestFetchPackument_Success(t *testing.T) {
	client, srv := testClient(t)
	defer srv.Close()

	p, err := client.FetchPackument(context.Background(), "leftpad")
	require.NoError(t, err)
	assert.Equal(t, "leftpad", p.Name)
	assert.Len(t, p.Versions, 4)
}

func TestFetchPackument_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := &npmrc.Config{DefaultRegistry: srv.URL + "/"}
	client := NewClient(cfg)

	_, err := client.FetchPackument(context.Background(), "nonexistent-package")
	assert.Error(t, err)
}

func TestSelectVersion_CaretRange(t *testing.T) {
	client, srv := testClient(t)
	defer srv.Close()
	p, err := client.FetchPackument(context.Background(), "leftpad")
	require.NoError(t, err)

	v, err := SelectVersion(p, "^1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", v.Version)
}

func TestSelectVersion_ORRangePicksGloballyHighest(t *testing.T) {
	client, srv := testClient(t)
	defer srv.Close()
	p, err := client.FetchPackument(context.Background(), "leftpad")
	require.NoError(t, err)

	v, err := SelectVersion(p, "^1.0.0 || ^2.0.0")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", v.Version)
}

func TestSelectVersion_ExcludesPrereleaseByDefault(t *testing.T) {
	client, srv := testClient(t)
	defer srv.Close()
	p, err := client.FetchPackument(context.Background(), "leftpad")
	require.NoError(t, err)

	v, err := SelectVersion(p, "^2.0.0")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", v.Version)
}

func TestSelectVersion_NoSatisfyingVersion(t *testing.T) {
	client, srv := testClient(t)
	defer srv.Close()
	p, err := client.FetchPackument(context.Background(), "leftpad")
	require.NoError(t, err)

	_, err = SelectVersion(p, "^99.0.0")
	assert.Error(t, err)
}
