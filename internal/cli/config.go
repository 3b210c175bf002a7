// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - config command.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)      Print the effective configuration as TOML
//   get <key>           Print one value
//   set <key> <value>   Change one value in the config file
//   keys                List the keys
//   path                Print the config file path
//
// Examples:
//   healthmate config set api.base_url https://healthmate.example.org
//   healthmate config set ui.theme light
//   healthmate config get logging.level
//
// The config commands never open local state or contact the backend, so
// they work even when the file holds a bad value.

package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/healthmate/healthmate-tui/internal/config"
	"github.com/healthmate/healthmate-tui/internal/ui/styles"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(w io.Writer, args Args) error {
	p := NewArgParser(args.Raw)
	path, err := configFilePath(args)
	if err != nil {
		return err
	}

	switch sub := strings.ToLower(p.Subcommand()); sub {
	case "", "show":
		return configShow(w, args, path)
	case "get":
		return configGet(w, args, path, p.Positional(1))
	case "set":
		if p.PositionalCount() < 3 {
			return NewUsageError("usage: healthmate config set <key> <value>", "Run 'healthmate config keys' to list keys.")
		}
		return configSet(w, args, path, p.Positional(1), strings.Join(p.PositionalFrom(2), " "))
	case "keys":
		return configKeys(w, args)
	case "path":
		if args.JSON {
			return NewJSONResponse("config path", map[string]string{"path": path}).Write(w)
		}
		fmt.Fprintln(w, path)
		return nil
	default:
		return NewUsageError("unknown config subcommand: "+sub, "Valid subcommands: show, get, set, keys, path")
	}
}

func configFilePath(args Args) (string, error) {
	if args.ConfigFile != "" {
		return args.ConfigFile, nil
	}
	path, err := config.ConfigPath()
	if err != nil {
		return "", errConfig{err}
	}
	return path, nil
}

// effective loads the file with environment overrides applied.
func effective(args Args, path string) (*config.Config, error) {
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, errConfig{err}
	}
	if args.APIURL != "" {
		cfg.API.BaseURL = args.APIURL
	}
	if args.Theme != "" {
		cfg.UI.Theme = args.Theme
	}
	return cfg, nil
}

func configShow(w io.Writer, args Args, path string) error {
	cfg, err := effective(args, path)
	if err != nil {
		return err
	}
	if args.JSON {
		values := make(map[string]any, len(config.Keys()))
		for _, k := range config.Keys() {
			if v, err := cfg.Get(k); err == nil {
				values[k] = v
			}
		}
		return NewJSONResponse("config show", map[string]any{"path": path, "values": values}).Write(w)
	}

	fmt.Fprintln(w, DimStyle.Render("# "+path))
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

func configGet(w io.Writer, args Args, path, key string) error {
	if key == "" {
		return NewUsageError("usage: healthmate config get <key>", "Run 'healthmate config keys' to list keys.")
	}
	cfg, err := effective(args, path)
	if err != nil {
		return err
	}
	v, err := cfg.Get(key)
	if err != nil {
		return NewUsageError(err.Error(), "Run 'healthmate config keys' to list keys.")
	}
	if args.JSON {
		return NewJSONResponse("config get", map[string]any{"key": key, "value": v}).Write(w)
	}
	fmt.Fprintln(w, v)
	return nil
}

// configSet edits the file alone. Environment overrides are not written
// back.
func configSet(w io.Writer, args Args, path, key, value string) error {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return errConfig{err}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return errConfig{err}
	}

	var v any = value
	if cur, err := cfg.Get(key); err == nil {
		if _, isBool := cur.(bool); isBool {
			b, err := ParseBoolString(value)
			if err != nil {
				return NewUsageError(err.Error(), "")
			}
			v = b
		}
	}
	if err := cfg.Set(key, v); err != nil {
		return NewUsageError(err.Error(), "Run 'healthmate config keys' to list keys.")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return errConfig{err}
	}

	if args.JSON {
		return NewJSONResponse("config set", map[string]string{"key": key, "value": value}).Write(w)
	}
	if !args.Quiet {
		fmt.Fprintln(w, styles.RenderSuccess(key+" = "+value))
	}
	return nil
}

func configKeys(w io.Writer, args Args) error {
	keys := config.Keys()
	if args.JSON {
		return NewJSONResponse("config keys", keys).Write(w)
	}
	for _, k := range keys {
		fmt.Fprintln(w, k)
	}
	return nil
}
