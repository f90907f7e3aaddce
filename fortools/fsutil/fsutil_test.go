package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.F")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o640))

	require.NoError(t, WriteFile(path, []byte("new"), Mode(path, 0o644)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assert.Equal(t, os.FileMode(0o640), Mode(path, 0o644))
}

func TestModeFallback(t *testing.T) {
	assert.Equal(t, os.FileMode(0o600), Mode(filepath.Join(t.TempDir(), "missing"), 0o600))
}
