package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSocketPath_IsStablePerProjectAndDiffersAcrossProjects(t *testing.T) {
	a1 := DefaultSocketPath("/tmp/project-a")
	a2 := DefaultSocketPath("/tmp/project-a")
	b := DefaultSocketPath("/tmp/project-b")

	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)
}

func TestDefaultPIDFileAndLogFile_DifferFromSocketPath(t *testing.T) {
	root := "/tmp/project-c"
	sock := DefaultSocketPath(root)
	pid := DefaultPIDFile(root)
	logFile := DefaultLogFile(root)

	assert.NotEqual(t, sock, pid)
	assert.NotEqual(t, sock, logFile)
	assert.NotEqual(t, pid, logFile)
}
