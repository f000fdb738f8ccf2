// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/jeranaias/applianceai-tui/internal/util"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "APPLIANCEAI_"

// DefaultAPIBase is the backend origin used when nothing else is configured.
const DefaultAPIBase = "http://localhost:8000/api"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete applianceai configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	API     APIConfig     `toml:"api" json:"api" envPrefix:"API_"`
	Storage StorageConfig `toml:"storage" json:"storage" envPrefix:"STORAGE_"`
	Voice   VoiceConfig   `toml:"voice" json:"voice" envPrefix:"VOICE_"`
	UI      UIConfig      `toml:"ui" json:"ui" envPrefix:"UI_"`
	Log     LogConfig     `toml:"log" json:"log" envPrefix:"LOG_"`
}

// APIConfig configures the backend HTTP client.
type APIConfig struct {
	// BaseURL is the backend origin including the /api prefix.
	BaseURL string `toml:"base_url" json:"base_url" env:"BASE"`

	// TimeoutSecs is the ceiling for a single request.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" env:"TIMEOUT_SECS"`

	// RateLimit caps outgoing requests per second. 0 disables the throttle.
	RateLimit float64 `toml:"rate_limit" json:"rate_limit" env:"RATE_LIMIT"`

	// RateBurst is the token bucket size when RateLimit is set.
	RateBurst int `toml:"rate_burst" json:"rate_burst" env:"RATE_BURST"`
}

// StorageConfig configures durable client storage for tokens.
type StorageConfig struct {
	// Path of the SQLite database. Defaults to <config dir>/state.db.
	Path string `toml:"path" json:"path" env:"PATH"`

	// KeyPath of the sealing key file. Defaults to <config dir>/storage.key.
	KeyPath string `toml:"key_path" json:"key_path" env:"KEY_PATH"`

	// Passphrase, when set, derives the sealing key instead of using the key
	// file. Never written to disk.
	Passphrase string `toml:"-" json:"-" env:"PASSPHRASE"`

	// Ephemeral keeps tokens in memory only.
	Ephemeral bool `toml:"ephemeral" json:"ephemeral" env:"EPHEMERAL"`
}

// VoiceConfig configures the dictation recognizer.
type VoiceConfig struct {
	// Command is an external speech-to-text program. Empty disables dictation.
	Command string `toml:"command" json:"command" env:"COMMAND"`

	// Args are passed to Command.
	Args []string `toml:"args" json:"args" env:"ARGS" envSeparator:" "`

	// Language is exported to Command as APPLIANCEAI_VOICE_LANGUAGE.
	Language string `toml:"language" json:"language" env:"LANGUAGE"`
}

// UIConfig configures presentation.
type UIConfig struct {
	// Theme is "dark", "light" or "auto".
	Theme string `toml:"theme" json:"theme" env:"THEME"`

	// MarkdownWidth is the wrap width for rendered AI replies. 0 follows the
	// terminal width.
	MarkdownWidth int `toml:"markdown_width" json:"markdown_width" env:"MARKDOWN_WIDTH"`

	// ShowTimestamps shows message times in the transcript.
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps" env:"SHOW_TIMESTAMPS"`
}

// LogConfig configures the log file.
type LogConfig struct {
	Level string `toml:"level" json:"level" env:"LEVEL"`

	// Path of the log file. Defaults to <config dir>/applianceai.log.
	Path string `toml:"path" json:"path" env:"PATH"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values. Paths that depend on
// the config directory are left empty and resolved by SetDefaults.
func Default() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			BaseURL:     DefaultAPIBase,
			TimeoutSecs: 10,
			RateLimit:   5,
			RateBurst:   5,
		},
		Voice: VoiceConfig{
			Language: "en-US",
		},
		UI: UIConfig{
			Theme:          "dark",
			ShowTimestamps: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the applianceai configuration directory. APPLIANCEAI_HOME
// overrides the default of ~/.applianceai.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".applianceai"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates the config directory with owner-only permissions.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the default config file if it exists and applies .env files and
// environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load for an explicit config file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	loadDotEnv(filepath.Dir(path))

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads .env from the working directory and the config directory.
// Existing environment variables are never overwritten.
func loadDotEnv(configDir string) {
	for _, p := range []string{".env", filepath.Join(configDir, ".env")} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

// ApplyEnvOverrides applies APPLIANCEAI_* environment variables on top of the
// current values. Variables that are unset leave fields untouched.
//
//   - APPLIANCEAI_API_BASE (fallback VITE_API_BASE): api.base_url
//   - APPLIANCEAI_API_TIMEOUT_SECS: api.timeout_secs
//   - APPLIANCEAI_STORAGE_PASSPHRASE: storage passphrase
//   - APPLIANCEAI_STORAGE_EPHEMERAL: storage.ephemeral
//   - APPLIANCEAI_VOICE_COMMAND: voice.command
//   - APPLIANCEAI_UI_THEME: ui.theme
//   - APPLIANCEAI_LOG_LEVEL: log.level
func (c *Config) ApplyEnvOverrides() error {
	if os.Getenv(EnvPrefix+"API_BASE") == "" {
		if vite := os.Getenv("VITE_API_BASE"); vite != "" {
			c.API.BaseURL = vite
		}
	}
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	return nil
}

// SetDefaults fills in empty values and resolves paths relative to the
// config directory.
func (c *Config) SetDefaults() error {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = d.API.TimeoutSecs
	}
	if c.API.RateLimit > 0 && c.API.RateBurst == 0 {
		c.API.RateBurst = d.API.RateBurst
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Voice.Language == "" {
		c.Voice.Language = d.Voice.Language
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}

	if c.Storage.Path != "" && c.Storage.KeyPath != "" && c.Log.Path != "" {
		return nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(dir, "state.db")
	}
	if c.Storage.KeyPath == "" {
		c.Storage.KeyPath = filepath.Join(dir, "storage.key")
	}
	if c.Log.Path == "" {
		c.Log.Path = filepath.Join(dir, "applianceai.log")
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	err := util.WriteAtomic(path, 0600, func(w io.Writer) error {
		io.WriteString(w, "# applianceai configuration file\n")
		io.WriteString(w, "# Environment variables prefixed APPLIANCEAI_ override these values.\n\n")
		if err := toml.NewEncoder(w).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Host == "" {
		errs = append(errs, ValidationError{"api.base_url", fmt.Sprintf("%q is not an absolute URL", c.API.BaseURL)})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{"api.base_url", "scheme must be http or https"})
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 300 {
		errs = append(errs, ValidationError{"api.timeout_secs", "must be between 1 and 300"})
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, ValidationError{"api.rate_limit", "must not be negative"})
	}
	if c.API.RateLimit > 0 && c.API.RateBurst < 1 {
		errs = append(errs, ValidationError{"api.rate_burst", "must be at least 1 when rate_limit is set"})
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		errs = append(errs, ValidationError{"ui.theme", fmt.Sprintf("unknown theme %q (want dark, light or auto)", c.UI.Theme)})
	}
	if c.UI.MarkdownWidth != 0 && (c.UI.MarkdownWidth < 20 || c.UI.MarkdownWidth > 400) {
		errs = append(errs, ValidationError{"ui.markdown_width", "must be 0 or between 20 and 400"})
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		errs = append(errs, ValidationError{"log.level", fmt.Sprintf("unknown level %q", c.Log.Level)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Voice.Args != nil {
		clone.Voice.Args = append([]string(nil), c.Voice.Args...)
	}
	return &clone
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first access.
// Load errors fall back to defaults.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
			_ = cfg.SetDefaults()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the process-wide configuration.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
