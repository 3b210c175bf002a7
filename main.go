// HealthMate - terminal client for the HealthMate health assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/healthmate/healthmate-tui/internal/chat"
	"github.com/healthmate/healthmate-tui/internal/cli"
	"github.com/healthmate/healthmate-tui/internal/history"
	"github.com/healthmate/healthmate-tui/internal/profile"
	"github.com/healthmate/healthmate-tui/internal/ui/app"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() int {
	cmd, args := cli.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Commands that need no backend or local state.
	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		return report(cmd, args, cli.HandleVersion(os.Stdout, args))
	case cli.CmdConfig:
		return report(cmd, args, cli.HandleConfig(os.Stdout, args))
	case cli.CmdUnknown:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args.Name)
		cli.PrintUsage(os.Stderr)
		return cli.ExitUsageError
	}

	env, err := cli.Setup(ctx, args)
	if err != nil {
		return report(cmd, args, err)
	}
	defer env.Close()

	switch cmd {
	case cli.CmdTUI:
		err = runTUI(ctx, env)
	case cli.CmdLogin:
		err = cli.HandleLogin(ctx, env)
	case cli.CmdLogout:
		err = cli.HandleLogout(ctx, env)
	case cli.CmdWhoami:
		err = cli.HandleWhoami(ctx, env)
	case cli.CmdHistory:
		err = cli.HandleHistory(ctx, env)
	case cli.CmdAnalytics:
		err = cli.HandleAnalytics(ctx, env)
	}
	if err != nil {
		env.Logger.Error("command failed", zap.Stringer("command", cmd), zap.Error(err))
	}
	return report(cmd, args, err)
}

// report prints err, JSON errors go to stdout, and returns the exit code.
func report(cmd cli.Command, args cli.Args, err error) int {
	if err == nil {
		return cli.ExitSuccess
	}
	out := os.Stderr
	if args.JSON {
		out = os.Stdout
	}
	cli.DisplayError(out, cmd.String(), err, args.JSON)
	return cli.GetExitCode(err)
}

// runTUI wires the services into the interactive interface and runs it
// until the user quits.
func runTUI(ctx context.Context, env *cli.Env) error {
	if err := cli.RequiresTTY("start the interface"); err != nil {
		return err
	}

	logger := env.Logger
	ctrl := chat.NewController(env.Client, env.Session, logger)

	m := app.New(ctx, app.Deps{
		Config:     env.Config,
		Session:    env.Session,
		Chat:       ctrl,
		History:    history.NewBridge(env.Client, env.Session, ctrl, logger),
		Profile:    profile.NewSubmitter(env.Client, env.Session, logger),
		Analytics:  env.Client,
		Logger:     logger,
		ConfigPath: env.ConfigPath,
	})

	logger.Info("interface starting",
		zap.String("version", Version),
		zap.String("api", env.Config.API.BaseURL),
		zap.Bool("restored_session", env.Session.IsAuthenticated()))

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(app.Model); ok {
		fm.Close()
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("interface error: %w", err)
	}
	return nil
}
