// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/healthmate/healthmate-tui/internal/api"
	"github.com/healthmate/healthmate-tui/internal/chat"
	"github.com/healthmate/healthmate-tui/internal/config"
	"github.com/healthmate/healthmate-tui/internal/history"
	"github.com/healthmate/healthmate-tui/internal/logging"
	"github.com/healthmate/healthmate-tui/internal/session"
	"github.com/healthmate/healthmate-tui/internal/storage"
	"github.com/healthmate/healthmate-tui/internal/ui/styles"
)

// Env holds the services a command runs against. Setup builds the real
// one; tests assemble it from an in-memory store and a test backend.
type Env struct {
	Args       Args
	Config     *config.Config
	ConfigPath string
	Logger     *zap.Logger
	Client     *api.Client
	Store      *storage.StateStore
	Session    *session.Store

	Out    io.Writer
	ErrOut io.Writer
	In     io.Reader

	closers []func() error
}

// Setup loads configuration, opens logging and local state, and restores
// the saved session without contacting the backend.
func Setup(ctx context.Context, args Args) (*Env, error) {
	env := &Env{Args: args, Out: os.Stdout, ErrOut: os.Stderr, In: os.Stdin}

	path := args.ConfigFile
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil, errConfig{err}
		}
		path = p
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, errConfig{err}
	}
	if err := applyOverrides(cfg, args); err != nil {
		return nil, errConfig{err}
	}
	env.Config = cfg
	env.ConfigPath = path

	logger, closeLog := openLogger(cfg, args)
	env.Logger = logger
	if closeLog != nil {
		env.closers = append(env.closers, closeLog)
	}

	dir, err := cfg.StateDir()
	if err != nil {
		env.Close()
		return nil, errConfig{err}
	}
	store, err := storage.Open(dir)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("failed to open local state: %w", err)
	}
	env.Store = store
	env.closers = append(env.closers, store.Close)

	env.Client = api.New(api.Options{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
		Logger:            logger,
		UserAgent:         "healthmate/" + Version,
	})
	env.Session = session.NewStore(env.Client, store, logger)
	if _, err := env.Session.Restore(ctx); err != nil {
		// Unreadable credentials behave like a signed-out start.
		logger.Warn("could not restore session", zap.Error(err))
	}
	return env, nil
}

// applyOverrides applies --api-url and --theme on top of the loaded file.
func applyOverrides(cfg *config.Config, args Args) error {
	if args.APIURL != "" {
		cfg.API.BaseURL = args.APIURL
	}
	if args.Theme != "" {
		if _, err := styles.ParseMode(args.Theme); err != nil {
			return err
		}
		cfg.UI.Theme = args.Theme
	}
	if args.Verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg.Validate()
}

// openLogger writes to the rotating log file. A log file that cannot be
// opened falls back to a no-op logger and never stops the client.
func openLogger(cfg *config.Config, args Args) (*zap.Logger, func() error) {
	file, err := cfg.LogFile()
	if err != nil {
		return logging.Nop(), nil
	}
	logger, closeFn, err := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		File:       file,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		if !args.Quiet {
			fmt.Fprintln(os.Stderr, styles.RenderWarning("logging disabled: "+err.Error()))
		}
		return logging.Nop(), nil
	}
	return logger, closeFn
}

// Close releases everything Setup opened, newest first.
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// History builds a history bridge with its own controller. Commands never
// touch a live conversation, only saved chats.
func (e *Env) History() *history.Bridge {
	ctrl := chat.NewController(e.Client, e.Session, e.Logger)
	return history.NewBridge(e.Client, e.Session, ctrl, e.Logger)
}

// infof prints an informational line unless --quiet or --json is set.
func (e *Env) infof(format string, a ...any) {
	if e.Args.Quiet || e.Args.JSON {
		return
	}
	fmt.Fprintf(e.Out, format, a...)
}
