// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

func TestDefault_Validates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "ftp://nowhere"
	cfg.Logging.Level = "loud"
	cfg.UI.Theme = "neon"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"api.base_url", "logging.level", "ui.theme"}, fields)
}

// =============================================================================
// LOADING
// =============================================================================

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HEALTHMATE_API_URL", "")
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().API.BaseURL, cfg.API.BaseURL)
	assert.Equal(t, 60*time.Millisecond, cfg.ScrollDebounce())
}

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\nbase_url = \"https://hm.example.com/\"\n"), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://hm.example.com", cfg.API.BaseURL, "trailing slash trimmed")
	assert.Equal(t, 60, cfg.API.TimeoutSecs)
	assert.Equal(t, "auto", cfg.UI.Theme)
}

func TestLoadFromPath_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\nbase_ulr = \"x\"\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_ulr")
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("HEALTHMATE_API_URL", "http://10.0.0.5:9000")
	t.Setenv("HEALTHMATE_TIMEOUT", "15")
	t.Setenv("HEALTHMATE_THEME", "light")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "http://10.0.0.5:9000", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout())
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestConfigDir_HomeOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HEALTHMATE_HOME", dir)

	got, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	logFile, err := Default().LogFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "logs", "healthmate.log"), logFile)
}

// =============================================================================
// SAVE AND GET/SET
// =============================================================================

func TestSaveTOML_RoundTripAndPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.UI.Theme = "dark"
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if os.PathSeparator == '/' {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "dark", loaded.UI.Theme)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("api.timeout_secs", "30"))
	v, err := cfg.Get("api.timeout_secs")
	require.NoError(t, err)
	assert.Equal(t, 30, v)

	require.NoError(t, cfg.Set("ui.render_markdown", "false"))
	assert.False(t, cfg.UI.RenderMarkdown)

	assert.Error(t, cfg.Set("api.nope", "1"))
	assert.Error(t, cfg.Set("api", "1"))
	assert.Error(t, cfg.Set("api.timeout_secs", "soon"))
}

func TestKeys_AllResolvable(t *testing.T) {
	cfg := Default()
	keys := Keys()
	require.NotEmpty(t, keys)
	for _, k := range keys {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatch_ReloadsOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	require.NoError(t, WatchWithDebounce(ctx, path, 20*time.Millisecond, func(cfg *Config, err error) {
		if err == nil {
			reloaded <- cfg
		}
	}))

	cfg := Default()
	cfg.UI.Theme = "light"
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case got := <-reloaded:
		assert.Equal(t, "light", got.UI.Theme)
	case <-time.After(3 * time.Second):
		t.Fatal("config change not observed")
	}
}
