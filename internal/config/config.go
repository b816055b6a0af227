// Package config loads the optional debugger-test configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultGcflags disables optimizations and inlining so
// locals survive until the breakpoint.
const DefaultGcflags = "all=-N -l"

// Config describes where the tools live and how fixtures are built.
// Empty paths are looked up in PATH.
type Config struct {
	Go       string        `yaml:"go"`
	Gdb      string        `yaml:"gdb"`
	Lldb     string        `yaml:"lldb"`
	Python   string        `yaml:"python"`
	Gcflags  string        `yaml:"gcflags"`
	Timeout  time.Duration `yaml:"timeout"` // per debugger run; zero means none
	KeepTemp bool          `yaml:"keep_temp"`
	Skip     []string      `yaml:"skip"` // debugger names not to run
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{Gcflags: DefaultGcflags}
}

// Load reads a YAML config from path. Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Gcflags == "" {
		cfg.Gcflags = DefaultGcflags
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("parse %s: negative timeout %v", path, cfg.Timeout)
	}
	return cfg, nil
}

// Skipped reports whether the named debugger should not run.
func (c *Config) Skipped(name string) bool {
	for _, s := range c.Skip {
		if s == name {
			return true
		}
	}
	return false
}
