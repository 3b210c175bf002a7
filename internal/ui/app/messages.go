// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/healthmate/healthmate-tui/internal/api"
	"github.com/healthmate/healthmate-tui/internal/chat"
	"github.com/healthmate/healthmate-tui/internal/config"
	"github.com/healthmate/healthmate-tui/internal/history"
	"github.com/healthmate/healthmate-tui/internal/model"
)

// =============================================================================
// RESULT MESSAGES
// =============================================================================

// resultMsg marks the messages produced by backend commands.
type resultMsg interface {
	tea.Msg
	result()
}

type validatedMsg struct{ err error }

type authMsg struct {
	signup bool
	err    error
}

type exchangeMsg struct {
	ex   chat.Exchange
	resp api.ChatResponse
	err  error
}

type feedbackMsg struct{ err error }

type savedMsg struct {
	id  string
	err error
}

type emailedMsg struct{ err error }

type historyListMsg struct {
	entries []history.Entry
	err     error
}

type chatLoadedMsg struct {
	id  string
	err error
}

type profileSavedMsg struct {
	profile    model.UserProfile
	onboarding bool
	err        error
}

type analyticsMsg struct {
	data model.Analytics
	err  error
}

type loggedOutMsg struct{ err error }

type configReloadedMsg struct {
	cfg *config.Config
	err error
}

// scrollMsg fires after the debounce; only the latest sequence scrolls.
type scrollMsg struct{ seq int }

func (validatedMsg) result()      {}
func (authMsg) result()           {}
func (exchangeMsg) result()       {}
func (feedbackMsg) result()       {}
func (savedMsg) result()          {}
func (emailedMsg) result()        {}
func (historyListMsg) result()    {}
func (chatLoadedMsg) result()     {}
func (profileSavedMsg) result()   {}
func (analyticsMsg) result()      {}
func (loggedOutMsg) result()      {}
func (configReloadedMsg) result() {}
func (scrollMsg) result()         {}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) validateCmd() tea.Cmd {
	ctx, sess := m.ctx, m.deps.Session
	return func() tea.Msg {
		_, err := sess.Validate(ctx)
		return validatedMsg{err: err}
	}
}

func (m Model) exchangeCmd(ex chat.Exchange) tea.Cmd {
	ctx, ctrl := m.ctx, m.deps.Chat
	return func() tea.Msg {
		resp, err := ctrl.Run(ctx, ex)
		return exchangeMsg{ex: ex, resp: resp, err: err}
	}
}

func (m Model) thumbsUpCmd(interactionID string) tea.Cmd {
	ctx, ctrl := m.ctx, m.deps.Chat
	return func() tea.Msg {
		return feedbackMsg{err: ctrl.ThumbsUp(ctx, interactionID)}
	}
}

func (m Model) commentCmd(comment string) tea.Cmd {
	ctx, ctrl := m.ctx, m.deps.Chat
	return func() tea.Msg {
		return feedbackMsg{err: ctrl.ConfirmComment(ctx, comment)}
	}
}

func (m Model) saveCmd(title string) tea.Cmd {
	ctx, bridge := m.ctx, m.deps.History
	return func() tea.Msg {
		id, err := bridge.Save(ctx, title)
		return savedMsg{id: id, err: err}
	}
}

func (m Model) emailCmd(providerEmail string) tea.Cmd {
	ctx, bridge := m.ctx, m.deps.History
	return func() tea.Msg {
		return emailedMsg{err: bridge.SendToProvider(ctx, providerEmail, "")}
	}
}

func (m Model) listCmd() tea.Cmd {
	ctx, bridge := m.ctx, m.deps.History
	return func() tea.Msg {
		entries, err := bridge.List(ctx)
		return historyListMsg{entries: entries, err: err}
	}
}

func (m Model) loadCmd(id string) tea.Cmd {
	ctx, bridge := m.ctx, m.deps.History
	return func() tea.Msg {
		return chatLoadedMsg{id: id, err: bridge.Load(ctx, id)}
	}
}

func (m Model) profileCmd(update model.ProfileUpdate, onboarding bool) tea.Cmd {
	ctx, sub := m.ctx, m.deps.Profile
	return func() tea.Msg {
		p, err := sub.Send(ctx, update)
		return profileSavedMsg{profile: p, onboarding: onboarding, err: err}
	}
}

func (m Model) analyticsCmd() tea.Cmd {
	ctx, src := m.ctx, m.deps.Analytics
	return func() tea.Msg {
		data, err := src.Analytics(ctx)
		return analyticsMsg{data: data, err: err}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	ctx, sess := m.ctx, m.deps.Session
	return func() tea.Msg {
		return loggedOutMsg{err: sess.Logout(ctx)}
	}
}

func scrollCmd(seq int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg { return scrollMsg{seq: seq} })
}

// =============================================================================
// CONFIG WATCH
// =============================================================================

// watchConfig starts the fsnotify watcher and returns the command that
// waits for the first reload. Each reload re-arms the wait.
func watchConfig(ctx context.Context, path string) (<-chan configReloadedMsg, error) {
	ch := make(chan configReloadedMsg, 1)
	err := config.Watch(ctx, path, func(cfg *config.Config, err error) {
		select {
		case ch <- configReloadedMsg{cfg: cfg, err: err}:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func waitConfig(ctx context.Context, ch <-chan configReloadedMsg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case msg := <-ch:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}
