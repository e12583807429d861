// Package config handles fetchplan configuration files.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "fetchplan.toml"

// Config represents the fetchplan configuration.
type Config struct {
	// Database is the SQLite database path used by query.
	Database string `toml:"database"`

	// SchemaDir is the directory of CUE entity definitions.
	SchemaDir string `toml:"schema_dir"`

	// LogLevel is one of debug, info, warn, error. Defaults to warn.
	LogLevel string `toml:"log_level"`

	// DefaultLimit is applied to list requests that set no page.
	// 0 means unbounded.
	DefaultLimit uint64 `toml:"default_limit"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		SchemaDir: "schema",
		LogLevel:  "warn",
	}
}

// Load loads DefaultFile from the working directory.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	if _, err := os.Stat(DefaultFile); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadFrom(DefaultFile)
}

// LoadFrom loads the configuration from a specific path. Keys missing from
// the file keep their default values; unknown keys are rejected.
func LoadFrom(path string) (*Config, error) {
	config := Default()
	md, err := toml.DecodeFile(path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if _, err := config.Level(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// Level parses LogLevel. An empty level means warn.
func (c *Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelWarn, fmt.Errorf("invalid log_level %q: must be debug, info, warn or error", c.LogLevel)
}
