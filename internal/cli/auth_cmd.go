// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - sign-in commands.
//
// Commands:
//   login     Sign in and store the session token
//   logout    Forget the stored session
//   whoami    Validate the session and show the profile
//
// Examples:
//   healthmate login
//   healthmate login --email ana@example.com
//   echo "$PW" | healthmate login --email ana@example.com --password-stdin
//   healthmate whoami --json

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/healthmate/healthmate-tui/internal/forms"
	"github.com/healthmate/healthmate-tui/internal/logging"
	"github.com/healthmate/healthmate-tui/internal/ui/styles"
)

// errAborted is returned when the user cancels a prompt.
var errAborted = errors.New("aborted")

// =============================================================================
// LOGIN
// =============================================================================

// HandleLogin signs in with an email and password. Missing values are
// prompted for on a terminal.
func HandleLogin(ctx context.Context, env *Env) error {
	p := NewArgParser(env.Args.Raw, "password-stdin")

	email := strings.TrimSpace(p.Flag("email"))
	if email == "" {
		email = p.Positional(0)
	}

	var password string
	if p.BoolFlag("password-stdin") {
		pw, err := readPasswordLine(env)
		if err != nil {
			return err
		}
		password = pw
	}

	if email == "" || password == "" {
		if err := RequiresTTY("sign in"); err != nil {
			return NewUsageError(err.Error(), "Pass --email and --password-stdin when not on a terminal.")
		}
	}
	if email == "" {
		e, err := promptLine("Email: ")
		if err != nil {
			return err
		}
		email = e
	}
	if password == "" {
		fmt.Fprint(env.ErrOut, "Password: ")
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(env.ErrOut)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(pw)
	}

	form := forms.LoginForm{Email: email, Password: password}
	if errs := form.Validate(); len(errs) > 0 {
		return errs
	}

	env.Logger.Info("cli login", zap.String("email", logging.RedactEmail(form.Email)))
	creds, err := env.Session.Login(ctx, form.Email, form.Password)
	if err != nil {
		return err
	}

	if env.Args.JSON {
		return NewJSONResponse("login", map[string]string{
			"email": creds.User.Email,
			"name":  env.Session.DisplayName(),
		}).Write(env.Out)
	}
	env.infof("%s\n", styles.RenderSuccess("Signed in as "+env.Session.DisplayName()))
	return nil
}

// readPasswordLine reads one line from env.In without the line ending.
func readPasswordLine(env *Env) (string, error) {
	line, err := bufio.NewReader(env.In).ReadString('\n')
	if err != nil && line == "" {
		return "", NewUsageError("no password on standard input", "")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptLine reads one line with editing support. Ctrl+C aborts.
func promptLine(prompt string) (string, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	s, err := line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", errAborted
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(s), nil
}

// =============================================================================
// LOGOUT
// =============================================================================

// HandleLogout clears the stored session.
func HandleLogout(ctx context.Context, env *Env) error {
	if !env.Session.IsAuthenticated() {
		env.infof("%s\n", styles.RenderInfo("Not signed in."))
		return nil
	}
	if err := env.Session.Logout(ctx); err != nil {
		return err
	}
	if env.Args.JSON {
		return NewJSONResponse("logout", map[string]bool{"signed_out": true}).Write(env.Out)
	}
	env.infof("%s\n", styles.RenderSuccess("Signed out"))
	return nil
}

// =============================================================================
// WHOAMI
// =============================================================================

// HandleWhoami validates the stored token against the backend and prints
// the profile. A rejected token is cleared.
func HandleWhoami(ctx context.Context, env *Env) error {
	profile, err := env.Session.Validate(ctx)
	if err != nil {
		return err
	}

	data := WhoamiData{
		Email:       profile.Email,
		Name:        profile.Name,
		Age:         string(profile.Age),
		Gender:      profile.Gender,
		Allergies:   nonNil(profile.Allergies),
		Medications: nonNil(profile.Medications),
		Conditions:  nonNil(profile.Conditions),
	}
	if data.Email == "" {
		data.Email = env.Session.User().Email
	}
	exp := env.Session.ExpiresAt()
	if !exp.IsZero() {
		data.ExpiresAt = exp.UTC().Format(time.RFC3339)
	}

	if env.Args.JSON {
		return NewJSONResponse("whoami", data).Write(env.Out)
	}

	w := env.Out
	fmt.Fprintln(w, TitleStyle.Render(env.Session.DisplayName()))
	fmt.Fprintln(w, RenderField("Email", data.Email))
	fmt.Fprintln(w, RenderField("Age", data.Age))
	fmt.Fprintln(w, RenderField("Gender", data.Gender))
	fmt.Fprintln(w, RenderField("Allergies", strings.Join(data.Allergies, ", ")))
	fmt.Fprintln(w, RenderField("Medications", strings.Join(data.Medications, ", ")))
	fmt.Fprintln(w, RenderField("Conditions", strings.Join(data.Conditions, ", ")))
	if !exp.IsZero() {
		fmt.Fprintln(w, RenderField("Session", "expires in "+formatDuration(time.Until(exp))))
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
