// Package config loads the greenhouse configuration file.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPollIntervalSeconds is how often the daemon re-reads the
	// monitor topology and window list when the config doesn't say.
	DefaultPollIntervalSeconds = 2
)

// Config is the greenhouse configuration.
type Config struct {
	// Display selects the X display (":1"). Empty uses $DISPLAY.
	Display string `yaml:"display"`

	// StorePath overrides where saved positions are persisted.
	StorePath string `yaml:"store_path"`

	// PollIntervalSeconds controls the daemon's topology/window poll.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`

	// AutoRestore restores saved positions when a monitor reconnects.
	// Defaults to true.
	AutoRestore *bool `yaml:"auto_restore"`

	// LaunchDetection re-applies a saved position when a matching window
	// appears. Defaults to true.
	LaunchDetection *bool `yaml:"launch_detection"`

	// IgnoreProcesses lists process names excluded from enumeration.
	IgnoreProcesses []string `yaml:"ignore_processes"`

	// IgnoreClasses lists window classes excluded from enumeration.
	IgnoreClasses []string `yaml:"ignore_classes"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		PollIntervalSeconds: DefaultPollIntervalSeconds,
		LogLevel:            "info",
	}
}

// DefaultConfigPath returns ~/.config/greenhouse/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "greenhouse", "config.yaml"), nil
}

// Load reads the configuration from the standard location. A missing file
// yields the defaults.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and validates a config file. A missing file yields the
// defaults; a malformed or unknown key is an error (silent typos in a config
// that controls window placement are worse than a refusal to start).
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.PollIntervalSeconds < 0 {
		return fmt.Errorf("poll_interval_seconds must not be negative, got %d", c.PollIntervalSeconds)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// PollInterval returns the poll interval as a duration, applying the default
// for zero.
func (c *Config) PollInterval() time.Duration {
	seconds := c.PollIntervalSeconds
	if seconds <= 0 {
		seconds = DefaultPollIntervalSeconds
	}
	return time.Duration(seconds) * time.Second
}

// GetAutoRestore resolves the AutoRestore tri-state (default true).
func (c *Config) GetAutoRestore() bool {
	if c == nil || c.AutoRestore == nil {
		return true
	}
	return *c.AutoRestore
}

// GetLaunchDetection resolves the LaunchDetection tri-state (default true).
func (c *Config) GetLaunchDetection() bool {
	if c == nil || c.LaunchDetection == nil {
		return true
	}
	return *c.LaunchDetection
}

// Ignored reports whether a window with the given process name and class is
// excluded from tracking.
func (c *Config) Ignored(process, class string) bool {
	for _, p := range c.IgnoreProcesses {
		if p == process {
			return true
		}
	}
	for _, cl := range c.IgnoreClasses {
		if cl == class {
			return true
		}
	}
	return false
}
