package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigFiles(t *testing.T) {
	assert.Equal(t, []string{"a.toml", "b.toml"}, resolveConfigFiles([]string{"a.toml", "b.toml"}))

	dir := t.TempDir()
	t.Chdir(dir)
	assert.Nil(t, resolveConfigFiles(nil))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stockstory.toml"), []byte("[server]\nport = 9000\n"), 0o644))
	assert.Equal(t, []string{"stockstory.toml"}, resolveConfigFiles(nil))
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, loadEnvFile(""))
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STOCKSTORY_TEST_ENV_VALUE=loaded\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("STOCKSTORY_TEST_ENV_VALUE") })

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv("STOCKSTORY_TEST_ENV_VALUE"))
}
