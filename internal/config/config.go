package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// GitHubConfig holds authentication configuration for GitHub.
type GitHubConfig struct {
	ClientID string `toml:"client_id"`
	Token    string `toml:"token"`
}

// GitConfig holds the local git identity to configure when none is set.
type GitConfig struct {
	User  string `toml:"user"`
	Email string `toml:"email"`
}

// Config holds all devsync configuration.
type Config struct {
	GitHub                  GitHubConfig `toml:"github"`
	Git                     GitConfig    `toml:"git"`
	DefaultBranch           string       `toml:"default_branch"`
	AutoMerge               bool         `toml:"auto_merge"`
	CreateRelease           bool         `toml:"create_release"`
	DraftRelease            bool         `toml:"draft_release"`
	ChangelogTimeoutSeconds int          `toml:"changelog_timeout_seconds"`
	// Debug comes from the DEVSYNC_DEBUG environment variable only; when
	// set, failures report full underlying detail instead of a terse
	// message.
	Debug bool `toml:"-"`
}

const defaultChangelogTimeout = 300 * time.Second

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DefaultBranch: "main",
		AutoMerge:     true,
		CreateRelease: true,
	}
}

// TrunkOrDefault returns DefaultBranch if set, otherwise "main".
func (c Config) TrunkOrDefault() string {
	if c.DefaultBranch != "" {
		return c.DefaultBranch
	}
	return "main"
}

// ChangelogTimeoutOrDefault returns the changelog prompt ceiling, defaulting
// to 300 seconds.
func (c Config) ChangelogTimeoutOrDefault() time.Duration {
	if c.ChangelogTimeoutSeconds > 0 {
		return time.Duration(c.ChangelogTimeoutSeconds) * time.Second
	}
	return defaultChangelogTimeout
}

// LoadFrom reads configuration from the given TOML file path.
// If the file does not exist, it returns the defaults without error.
// Environment variables always take precedence over file values:
//   - GITHUB_TOKEN  overrides github.token
//   - DEVSYNC_DEBUG enables debug output
func LoadFrom(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// DefaultConfigPath returns the default path for the devsync config file.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return home + "/.config/devsync/config.toml"
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.GitHub.Token = v
	}
	if v := os.Getenv("DEVSYNC_DEBUG"); v != "" {
		cfg.Debug = true
	}
}

// Save writes cfg to the given TOML file path, creating parent directories
// as needed. Existing file contents are overwritten. Permissions on the
// written file are 0600 because it may hold a token.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	if encErr := toml.NewEncoder(f).Encode(cfg); encErr != nil {
		f.Close()
		return encErr
	}
	return f.Close()
}
