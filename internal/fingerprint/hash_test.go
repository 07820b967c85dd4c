package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder_Deterministic(t *testing.T) {
	build := func() Hash {
		return NewBuilder().
			WriteString("node:script:build").
			WriteString("src/index.ts").
			WriteUint64(42).
			Sum()
	}
	a := build()
	b := build()
	assert.Equal(t, a, b)
	assert.Len(t, string(a), 64) // 32 bytes hex-encoded
}

func TestBuilder_FramingAvoidsCollision(t *testing.T) {
	ab := NewBuilder().WriteString("ab").WriteString("c").Sum()
	a_bc := NewBuilder().WriteString("a").WriteString("bc").Sum()
	assert.NotEqual(t, ab, a_bc)
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"./src/index.ts":  "src/index.ts",
		"/abs/path.ts":    "abs/path.ts",
		"a/../b/file.ts":  "b/file.ts",
		"already/clean.ts": "already/clean.ts",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePath(in), "input %q", in)
	}
}

func TestString_MatchesBytes(t *testing.T) {
	assert.Equal(t, Bytes([]byte("hello")), String("hello"))
}
