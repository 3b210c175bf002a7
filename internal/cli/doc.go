// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the healthmate command line: argument parsing,
// the non-interactive commands and their output.
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdConfig:
//	    err = cli.HandleConfig(os.Stdout, args)
//	case cli.CmdLogin:
//	    env, err := cli.Setup(ctx, args)
//	    ...
//	    err = cli.HandleLogin(ctx, env)
//	}
//
// # Commands
//
//   - login, logout, whoami: session management (auth_cmd.go)
//   - history list|show|export|email: saved conversations (history_cmd.go)
//   - analytics: feedback summary (analytics_cmd.go)
//   - config show|get|set|keys|path: settings (config.go)
//   - version, help
//
// Running without a command starts the interactive interface, which lives
// in internal/ui/app.
//
// Every command accepts --json and then writes a JSONResponse envelope to
// stdout. Errors map to exit codes through GetExitCode.
package cli
