package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")

	assert.False(t, FileExists(file))

	require.NoError(t, os.WriteFile(file, []byte("server: ''\n"), 0644))
	assert.True(t, FileExists(file))

	assert.False(t, FileExists(dir), "directories are not files")
}

func TestEnsureDirExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, EnsureDirExists(dir))
	require.NoError(t, EnsureDirExists(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestXDGDirs(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/config")

	assert.Equal(t, filepath.Join("/tmp/state", "pavuterm"), StateDir("pavuterm"))
	assert.Equal(t, filepath.Join("/tmp/config", "pavuterm"), ConfigDir("pavuterm"))
}

func TestXDGDirsIgnoreRelativePaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "relative/config")

	assert.Equal(t, filepath.Join(home, ".config", "pavuterm"), ConfigDir("pavuterm"))
}
