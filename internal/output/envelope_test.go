package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_Success(t *testing.T) {
	env := Success(2, map[string]int{"count": 3})
	assert.True(t, env.OK)
	assert.Equal(t, 2, env.SchemaVersion)

	var buf bytes.Buffer
	require.NoError(t, JSONTo(&buf, env))
	assert.Contains(t, buf.String(), `"ok": true`)
	assert.Contains(t, buf.String(), `"schema_version": 2`)
}

func TestEnvelope_Failed(t *testing.T) {
	env := Failed(1)
	assert.False(t, env.OK)
	assert.Nil(t, env.Data)
}
