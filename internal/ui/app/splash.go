// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/healthmate/healthmate-tui/internal/nav"
	"github.com/healthmate/healthmate-tui/internal/session"
	"github.com/healthmate/healthmate-tui/internal/ui/components"
)

// Disclaimer is shown on the splash and empty chat screens.
const Disclaimer = "HealthMate offers general health information, not a diagnosis. " +
	"In an emergency, call your local emergency number."

var splashChoices = []struct {
	label string
	event nav.Event
}{
	{"Sign in", nav.EventChooseLogin},
	{"Create account", nav.EventChooseSignup},
}

type splashView struct {
	cursor int
}

func newSplashView() splashView {
	return splashView{}
}

func (m Model) updateSplash(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up, m.keys.PrevItem):
		m.splash.cursor = (m.splash.cursor + len(splashChoices) - 1) % len(splashChoices)
	case key.Matches(msg, m.keys.Down, m.keys.NextItem):
		m.splash.cursor = (m.splash.cursor + 1) % len(splashChoices)
	case key.Matches(msg, m.keys.Submit):
		return m.fire(splashChoices[m.splash.cursor].event)
	}
	return m, nil
}

func (m Model) viewSplash() string {
	t := m.theme
	buttons := make([]string, len(splashChoices))
	for i, c := range splashChoices {
		style := t.Button
		if i == m.splash.cursor {
			style = t.ButtonActive
		}
		buttons[i] = style.Render(c.label)
	}

	card := t.Card.Render(lipgloss.JoinVertical(lipgloss.Center,
		t.Brand.Render("HealthMate"),
		t.Muted.Render("Your AI health guide"),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center, buttons[0], "  ", buttons[1]),
		"",
		t.Disclaimer.Width(48).Render(Disclaimer),
	))
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, "\n"+card)
}

// =============================================================================
// LOADING
// =============================================================================

func (m Model) viewLoading() string {
	line := m.spinner.View() + " " + m.theme.ThinkingText.Render("Checking your session...")
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, "\n\n"+line)
}

// handleValidated leaves the loading screen. Any failure has already cleared
// the stored token.
func (m Model) handleValidated(msg validatedMsg) (tea.Model, tea.Cmd) {
	if m.nav.Current() != nav.ScreenLoading {
		return m, nil
	}
	if msg.err != nil {
		if !errors.Is(msg.err, session.ErrInvalidSession) && !errors.Is(msg.err, session.ErrNoToken) {
			m.logger.Warn("session check failed", zap.Error(msg.err))
		}
		next, cmd := m.fire(nav.EventInvalid)
		notice := next.toast(components.ToastKindWarning, "Your session has ended. Please sign in.")
		return next, tea.Batch(cmd, notice)
	}
	return m.fire(nav.EventValidated)
}
