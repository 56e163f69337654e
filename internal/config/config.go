// Package config provides configuration loading for addonctl.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

// FileName is the name of the optional config file inside Dir().
const FileName = "config.yaml"

// Log levels accepted in LogLevel.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Dir returns the addonctl config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/addonctl if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "addonctl"), nil
}

// Config holds user settings. Values come from the config file first and
// are then overridden by environment variables.
type Config struct {
	// DBPath is the sqlite database holding addon state and the catalog cache.
	DBPath string `yaml:"db_path" env:"ADDONCTL_DB"`
	// CatalogURL is the remote catalog endpoint.
	CatalogURL string `yaml:"catalog_url" env:"ADDONCTL_CATALOG_URL"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"ADDONCTL_LOG_LEVEL"`
	// FetchWorkers bounds concurrent catalog requests.
	FetchWorkers int `yaml:"fetch_workers" env:"ADDONCTL_FETCH_WORKERS"`
	// PruneOrphans removes staging directories of enabled addons whose
	// package disappeared from the workshop directory.
	PruneOrphans bool `yaml:"prune_orphans" env:"ADDONCTL_PRUNE_ORPHANS"`
	// GameSubdir is the game content directory below the game root.
	GameSubdir string `yaml:"game_subdir" env:"ADDONCTL_GAME_SUBDIR"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		CatalogURL:   "https://api.steampowered.com/ISteamRemoteStorage/GetPublishedFileDetails/v1/",
		LogLevel:     LogLevelWarn,
		FetchWorkers: 4,
		PruneOrphans: true,
		GameSubdir:   "left4dead2",
	}
}

// Load reads {dir}/config.yaml on top of the defaults and applies
// environment overrides. A missing file is not an error.
func Load(dir string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	if c.FetchWorkers < 1 {
		return fmt.Errorf("fetch_workers must be at least 1, got %d", c.FetchWorkers)
	}

	if c.GameSubdir == "" {
		return fmt.Errorf("game_subdir must not be empty")
	}

	return nil
}

// ResolveDBPath returns DBPath, defaulting to {dir}/addonctl.db and
// creating the directory when needed.
func (c *Config) ResolveDBPath(dir string) (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(dir, "addonctl.db"), nil
}
