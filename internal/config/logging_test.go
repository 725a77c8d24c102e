package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"wiki-2024-01-01T00-00-00.000.log",
		"wiki-2024-01-02T00-00-00.000.log",
		"wiki-2024-01-03T00-00-00.000.log",
		"other.txt",
	}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	require.NoError(t, cleanupOldLogs(dir, 2))

	remaining, err := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "wiki-2024-01-02T00-00-00.000.log"),
		filepath.Join(dir, "wiki-2024-01-03T00-00-00.000.log"),
		filepath.Join(dir, "other.txt"),
	}, remaining)
}

func TestNewLogger_WithLogDir(t *testing.T) {
	dir := t.TempDir()
	logger, closer, err := NewLogger(&Config{Environment: "test", LogDir: dir, LogMaxFiles: 3})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hello", "key", "value")

	files, err := filepath.Glob(filepath.Join(dir, "wiki-*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
