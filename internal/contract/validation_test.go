package contract

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStringList_WithinLimit(t *testing.T) {
	result := ValidateStringList("targets", []string{"script:build", "script:test"})
	assert.True(t, result.OK)
}

func TestValidateStringList_ExceedsLimit(t *testing.T) {
	t.Setenv("HOWTH_MAX_PAYLOAD_BYTES", "10")
	result := ValidateStringList("targets", []string{"way more than ten bytes of target names"})
	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "targets")
}

func TestMaxPayloadBytes_DefaultWhenUnset(t *testing.T) {
	os.Unsetenv("HOWTH_MAX_PAYLOAD_BYTES")
	assert.Equal(t, DefaultMaxPayloadBytes, MaxPayloadBytes())
}

func TestMaxPayloadBytes_EnvOverride(t *testing.T) {
	t.Setenv("HOWTH_MAX_PAYLOAD_BYTES", "1024")
	assert.Equal(t, 1024, MaxPayloadBytes())
}

func TestValidateIdentifier_ExceedsLimit(t *testing.T) {
	long := make([]byte, IdentifierMaxBytes+1)
	result := ValidateIdentifier("nonce", string(long))
	assert.False(t, result.OK)
}

func TestValidateIdentifier_WithinLimit(t *testing.T) {
	result := ValidateIdentifier("nonce", "abc123")
	assert.True(t, result.OK)
}
