package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePath(t *testing.T) {
	root := filepath.Join("/srv", "agrosathi")

	assert.Equal(t, filepath.Join(root, "models", "model.onnx"), resolvePath(root, "models/model.onnx"))
	assert.Equal(t, "/opt/models/model.onnx", resolvePath(root, "/opt/models/model.onnx"))
	assert.Equal(t, "", resolvePath(root, ""))
}

func TestProjectRoot_FromCmdServer(t *testing.T) {
	dir := t.TempDir()
	serverDir := filepath.Join(dir, "cmd", "server")
	assert.NoError(t, os.MkdirAll(serverDir, 0o755))
	t.Chdir(serverDir)

	got, err := filepath.EvalSymlinks(projectRoot())
	assert.NoError(t, err)
	want, err := filepath.EvalSymlinks(dir)
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}
