package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		verbose, debug, noGdb, noLldb, configPath = false, false, false, false, ""
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	resetFlags(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Skipped("gdb"))
	assert.False(t, cfg.Skipped("lldb"))
	assert.False(t, cfg.KeepTemp)
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	resetFlags(t)

	path := filepath.Join(t.TempDir(), "debugo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gdb: /opt/gdb\nskip: [gdb]\n"), 0644))
	require.NoError(t, rootCmd.ParseFlags([]string{"--config", path, "--no-lldb", "-d"}))

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/opt/gdb", cfg.Gdb)
	assert.True(t, cfg.Skipped("gdb"))
	assert.True(t, cfg.Skipped("lldb"))
	assert.True(t, cfg.KeepTemp)
}

func TestLoadConfigMissingFile(t *testing.T) {
	resetFlags(t)

	configPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := loadConfig()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
