package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fetchplan.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFrom(t *testing.T) {
	path := writeConfig(t, `
database = "blog.db"
schema_dir = "defs"
log_level = "debug"
default_limit = 50
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Database:     "blog.db",
		SchemaDir:    "defs",
		LogLevel:     "debug",
		DefaultLimit: 50,
	}, cfg)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadFromKeepsDefaults(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, `database = "x.db"`))
	require.NoError(t, err)
	assert.Equal(t, "x.db", cfg.Database)
	assert.Equal(t, "schema", cfg.SchemaDir)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Zero(t, cfg.DefaultLimit)
}

func TestLoadFromErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"malformed", `database = `, "failed to parse config"},
		{"unknown key", `databse = "x.db"`, "unknown keys: databse"},
		{"bad level", `log_level = "loud"`, "invalid log_level"},
		{"negative limit", `default_limit = -1`, "failed to parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte(`default_limit = 10`), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), cfg.DefaultLimit)
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelWarn},
		{"info", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		level, err := (&Config{LogLevel: tt.in}).Level()
		require.NoError(t, err)
		assert.Equal(t, tt.want, level, tt.in)
	}
}
