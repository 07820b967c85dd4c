package errors

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHowthError_Error(t *testing.T) {
	plain := New(CodePkgNotFound, ExitFailure, "package not found")
	assert.Equal(t, "package not found", plain.Error())

	wrapped := Failure(CodeCompilerFailed, "transpile failed", "syntax error", "check tsconfig", assert.AnError)
	assert.Contains(t, wrapped.Error(), "transpile failed")
	assert.Contains(t, wrapped.Error(), assert.AnError.Error())
}

func TestHowthError_ToJSON(t *testing.T) {
	err := Validation(CodePkgLockNotFound, "lockfile missing", "no howth.lock").WithPath("/proj/howth.lock")
	j := err.ToJSON()
	require.Equal(t, CodePkgLockNotFound, j.Code)
	require.Equal(t, "/proj/howth.lock", j.Path)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(j))
	assert.Contains(t, buf.String(), `"code":"PKG_LOCK_NOT_FOUND"`)
}

func TestHowthError_Format(t *testing.T) {
	err := Failure(CodeDaemonNotRunning, "daemon not running", "no socket found", "run howth ping", nil)
	out := err.Format(true)
	assert.Contains(t, out, "DAEMON_NOT_RUNNING")
	assert.Contains(t, out, "Fix:")
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, 0, ExitSuccess)
	assert.Equal(t, 1, ExitFailure)
	assert.Equal(t, 2, ExitValidation)
}
