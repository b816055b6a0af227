package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "debugo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultGcflags, cfg.Gcflags)
	assert.Zero(t, cfg.Timeout)
	assert.False(t, cfg.Skipped("gdb"))
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
gdb: /opt/gdb/bin/gdb
python: /usr/bin/python3
timeout: 90s
keep_temp: true
skip:
  - lldb
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/gdb/bin/gdb", cfg.Gdb)
	assert.Equal(t, "/usr/bin/python3", cfg.Python)
	assert.Empty(t, cfg.Lldb)
	assert.Equal(t, DefaultGcflags, cfg.Gcflags)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.True(t, cfg.KeepTemp)
	assert.True(t, cfg.Skipped("lldb"))
	assert.False(t, cfg.Skipped("gdb"))
}

func TestLoadGcflags(t *testing.T) {
	cfg, err := Load(writeConfig(t, "gcflags: -N -l\n"))
	require.NoError(t, err)
	assert.Equal(t, "-N -l", cfg.Gcflags)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "skip: [gdb\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "timeout: -1s\n"))
	assert.ErrorContains(t, err, "negative timeout")
}
