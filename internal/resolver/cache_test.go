package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCache_GetPutAndInvalidateByImporter(t *testing.T) {
	c := NewCache()
	_, ok := c.Get("react", "/app/src")
	assert.False(t, ok)

	c.Put("react", "/app/src", &Result{Path: "/app/node_modules/react/index.js"})
	got, ok := c.Get("react", "/app/src")
	assert.True(t, ok)
	assert.Equal(t, "/app/node_modules/react/index.js", got.Path)

	c.InvalidatePath("/app/src")
	_, ok = c.Get("react", "/app/src")
	assert.False(t, ok)
}

func TestCache_InvalidatePathUnderChangedPackage(t *testing.T) {
	c := NewCache()
	c.Put("react", "/app/src", &Result{Path: "/app/node_modules/react/index.js"})
	c.Put("react-dom", "/app/src", &Result{Path: "/app/node_modules/react-dom/index.js"})

	c.InvalidatePath("/app/node_modules/react/package.json")

	_, ok := c.Get("react", "/app/src")
	assert.False(t, ok)
	_, ok = c.Get("react-dom", "/app/src")
	assert.True(t, ok)
}

func TestCache_InvalidatePathScopedPackage(t *testing.T) {
	c := NewCache()
	c.Put("@scope/pkg", "/app/src", &Result{Path: "/app/node_modules/@scope/pkg/index.js"})

	c.InvalidatePath("/app/node_modules/@scope/pkg/lib/extra.js")
	_, ok := c.Get("@scope/pkg", "/app/src")
	assert.False(t, ok)
}
