package file_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/telemetry-agent/pkg/file"
)

func TestFileService_WriteAndReadRaw(t *testing.T) {
	fs := file.NewFileService()
	path := filepath.Join(t.TempDir(), "blob")

	exists, err := fs.IsFileExists(path)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, fs.WriteFileRaw(path, []byte("first")))
	require.NoError(t, fs.WriteFileRaw(path, []byte("second")))

	data, err := fs.ReadFileRaw(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	exists, err = fs.IsFileExists(path + ".tmp")
	require.NoError(t, err)
	assert.False(t, exists, "temporary file is renamed away")
}

func TestFileService_EnsureDir(t *testing.T) {
	fs := file.NewFileService()
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, fs.EnsureDir(dir))
	exists, err := fs.IsFileExists(dir)
	require.NoError(t, err)
	assert.True(t, exists)
}
