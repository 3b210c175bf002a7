// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for HealthMate.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides and validation. A running TUI can watch the file and re-apply
// settings such as the theme without restarting.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Backend base URL, timeout and client-side rate limit
//   - LoggingConfig: Rotating log file settings
//   - UIConfig: Theme and chat view preferences
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (HEALTHMATE_*), including those from ./.env
//   - ~/.healthmate/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Watch for edits:
//
//	err := config.Watch(ctx, path, func(cfg *config.Config, err error) { ... })
package config
