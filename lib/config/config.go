// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for nvimbridge.
//
// Configuration is resolved in layers, later layers winning:
//
//  1. built-in defaults
//  2. a config file (YAML or JSON/JSONC), located via the
//     NVIMBRIDGE_CONFIG environment variable or the --config flag
//  3. environment variables (NVIM_SOCKET_PATH, ALLOW_SHELL_COMMANDS)
//  4. command-line flags
//
// There is no automatic file discovery. If no config file is named,
// the defaults plus environment layers apply.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/nvimbridge/nvimbridge/bridge"
)

// Config is the full nvimbridge configuration.
type Config struct {
	// SocketPath is the filesystem path of the Neovim RPC socket.
	// Default: /tmp/nvim
	SocketPath string `yaml:"socket_path" json:"socketPath"`

	// AllowShell enables "!" shell passthrough commands. They are
	// refused with an informational message when false.
	// Default: false
	AllowShell bool `yaml:"allow_shell" json:"allowShell"`

	// LogLevel sets the minimum log severity: debug, info, warn,
	// or error. Default: info
	LogLevel string `yaml:"log_level" json:"logLevel"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SocketPath: bridge.DefaultSocketPath,
		AllowShell: false,
		LogLevel:   "info",
	}
}

// Load resolves configuration from the NVIMBRIDGE_CONFIG environment
// variable when set, then applies environment overrides. When the
// variable is unset the defaults plus environment layers apply.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("NVIMBRIDGE_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFile loads configuration from a specific file path, then
// applies environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// loadFile parses a single file into the config, dispatching on
// extension. JSONC comments and trailing commas are stripped before
// JSON decoding.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config file %s: unsupported extension (want .yaml, .yml, .json, or .jsonc)", path)
	}
	return nil
}

// ApplyEnv overlays environment variables onto the config.
// NVIM_SOCKET_PATH replaces the socket path; ALLOW_SHELL_COMMANDS
// enables shell passthrough when set to a truthy value.
func (c *Config) ApplyEnv() {
	if path := os.Getenv("NVIM_SOCKET_PATH"); path != "" {
		c.SocketPath = path
	}
	if raw, ok := os.LookupEnv("ALLOW_SHELL_COMMANDS"); ok {
		c.AllowShell = isTruthy(raw)
	}
}

// Validate reports configuration defects that would make every
// operation fail.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SocketPath) == "" {
		return fmt.Errorf("socket_path is empty; set it in the config file, NVIM_SOCKET_PATH, or --socket")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q: want debug, info, warn, or error", c.LogLevel)
	}
	return nil
}

func isTruthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
