package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle.toml")
	assert.False(t, FileExists(path))

	require.NoError(t, os.WriteFile(path, []byte("HTTP_PORT = \"8080\"\n"), 0o644))
	assert.True(t, FileExists(path))
}
