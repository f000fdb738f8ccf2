// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("APPLIANCEAI_HOME", dir)
	for _, k := range []string{
		"APPLIANCEAI_API_BASE", "VITE_API_BASE", "APPLIANCEAI_API_TIMEOUT_SECS",
		"APPLIANCEAI_UI_THEME", "APPLIANCEAI_LOG_LEVEL", "APPLIANCEAI_STORAGE_PASSPHRASE",
		"APPLIANCEAI_STORAGE_EPHEMERAL", "APPLIANCEAI_VOICE_COMMAND",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultAPIBase, cfg.API.BaseURL)
	assert.Equal(t, 10, cfg.API.TimeoutSecs)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.True(t, cfg.UI.ShowTimestamps)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIBase, cfg.API.BaseURL)
	assert.Equal(t, filepath.Join(dir, "state.db"), cfg.Storage.Path)
	assert.Equal(t, filepath.Join(dir, "storage.key"), cfg.Storage.KeyPath)
	assert.Equal(t, filepath.Join(dir, "applianceai.log"), cfg.Log.Path)
}

func TestLoadFromTOML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "https://support.example.com/api/"
timeout_secs = 30

[ui]
theme = "light"
markdown_width = 100
`), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://support.example.com/api", cfg.API.BaseURL, "trailing slash trimmed")
	assert.Equal(t, 30, cfg.API.TimeoutSecs)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, 100, cfg.UI.MarkdownWidth)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadInvalidTOML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api\nbase_url="), 0600))

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	dir := isolate(t)
	t.Setenv("APPLIANCEAI_API_BASE", "https://env.example.com/api")
	t.Setenv("APPLIANCEAI_UI_THEME", "auto")
	t.Setenv("APPLIANCEAI_STORAGE_PASSPHRASE", "hunter2")
	t.Setenv("APPLIANCEAI_STORAGE_EPHEMERAL", "true")

	cfg, err := LoadFromPath(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, "auto", cfg.UI.Theme)
	assert.Equal(t, "hunter2", cfg.Storage.Passphrase)
	assert.True(t, cfg.Storage.Ephemeral)
}

func TestViteFallback(t *testing.T) {
	dir := isolate(t)
	t.Setenv("VITE_API_BASE", "http://vite.local:8000/api")

	cfg, err := LoadFromPath(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, "http://vite.local:8000/api", cfg.API.BaseURL)

	t.Setenv("APPLIANCEAI_API_BASE", "http://primary.local/api")
	cfg, err = LoadFromPath(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, "http://primary.local/api", cfg.API.BaseURL)
}

func TestDotEnvInConfigDir(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("APPLIANCEAI_LOG_LEVEL=debug\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("APPLIANCEAI_LOG_LEVEL") })

	cfg, err := LoadFromPath(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"relative url", func(c *Config) { c.API.BaseURL = "/api" }, "api.base_url"},
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://host/api" }, "api.base_url"},
		{"timeout zero", func(c *Config) { c.API.TimeoutSecs = 0 }, "api.timeout_secs"},
		{"negative rate", func(c *Config) { c.API.RateLimit = -1 }, "api.rate_limit"},
		{"burst missing", func(c *Config) { c.API.RateBurst = 0 }, "api.rate_burst"},
		{"theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"markdown width", func(c *Config) { c.UI.MarkdownWidth = 5 }, "ui.markdown_width"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var verrs ValidateErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestSaveTOMLRoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.API.BaseURL = "https://saved.example.com/api"
	cfg.Storage.Passphrase = "never-written"
	require.NoError(t, SaveTOML(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# applianceai configuration file")
	assert.NotContains(t, string(data), "never-written")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://saved.example.com/api", loaded.API.BaseURL)
}

func TestGlobal(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	cfg := Default()
	cfg.UI.Theme = "light"
	SetGlobal(cfg)
	assert.Same(t, cfg, Global())

	ResetGlobalForTesting()
	assert.Equal(t, "dark", Global().UI.Theme)
}

func TestClone(t *testing.T) {
	cfg := Default()
	cfg.Voice.Args = []string{"--model", "base"}
	clone := cfg.Clone()
	clone.Voice.Args[0] = "changed"
	assert.Equal(t, "--model", cfg.Voice.Args[0])
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	require.NoError(t, Watch(ctx, path, 20*time.Millisecond, func(c *Config, err error) {
		if err == nil {
			got <- c
		}
	}))

	cfg := Default()
	cfg.UI.Theme = "light"
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case c := <-got:
		assert.Equal(t, "light", c.UI.Theme)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after config change")
	}
}
