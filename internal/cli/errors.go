// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/healthmate/healthmate-tui/internal/api"
	"github.com/healthmate/healthmate-tui/internal/config"
	"github.com/healthmate/healthmate-tui/internal/forms"
	"github.com/healthmate/healthmate-tui/internal/session"
	"github.com/healthmate/healthmate-tui/internal/ui/styles"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitNetworkError  = 5
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a failure with the command and action that produced it.
type CommandError struct {
	Command string
	Action  string
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError is a malformed command line.
type UsageError struct {
	Message string
	Hint    string
}

func (e *UsageError) Error() string {
	if e.Hint != "" {
		return e.Message + "\n" + e.Hint
	}
	return e.Message
}

// NewCommandError creates a CommandError.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewUsageError creates a UsageError.
func NewUsageError(message, hint string) error {
	return &UsageError{Message: message, Hint: hint}
}

// errConfig marks configuration failures for the exit code mapping.
type errConfig struct{ err error }

func (e errConfig) Error() string { return e.err.Error() }
func (e errConfig) Unwrap() error { return e.err }

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsageError
	}
	if _, ok := forms.AsValidation(err); ok {
		return ExitUsageError
	}
	var tty *TTYRequiredError
	if errors.As(err, &tty) {
		return ExitUsageError
	}

	var cfgErr errConfig
	var cfgValidate config.ValidateErrors
	if errors.As(err, &cfgErr) || errors.As(err, &cfgValidate) {
		return ExitConfigError
	}

	if api.IsAuth(err) || errors.Is(err, session.ErrNoToken) || errors.Is(err, session.ErrInvalidSession) {
		return ExitAuthError
	}
	if errors.Is(err, api.ErrNetwork) {
		return ExitNetworkError
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return ExitNotFoundError
	}
	return ExitGeneralError
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w, as a JSON envelope in JSON mode.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		_ = NewJSONErrorResponse(command, err).Write(w)
		return
	}
	fmt.Fprintln(w, styles.RenderError(userMessage(err)))
	if hint := errorHint(err); hint != "" {
		fmt.Fprintln(w, DimStyle.Render(hint))
	}
}

// userMessage prefers the backend's own wording.
func userMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) || errors.Is(err, api.ErrNetwork) {
		return api.DetailOf(err)
	}
	return err.Error()
}

func errorHint(err error) string {
	switch GetExitCode(err) {
	case ExitAuthError:
		return "Run 'healthmate login' to sign in."
	case ExitNetworkError:
		return "Check api.base_url with 'healthmate config get api.base_url'."
	case ExitConfigError:
		return "Fix the file shown by 'healthmate config path' or remove it to use defaults."
	}
	return ""
}
