// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/healthmate/healthmate-tui/internal/model"
)

// =============================================================================
// EXPIRY WATCH
// =============================================================================

// DefaultWarningBefore is how long before token expiry the UI is warned.
const DefaultWarningBefore = 2 * time.Minute

// ExpiryTickInterval is how often the TUI checks the token expiry.
const ExpiryTickInterval = 15 * time.Second

// ExpiryTickMsg drives the periodic expiry check.
type ExpiryTickMsg struct {
	Time time.Time
}

// ExpiryWarningMsg indicates the token expires soon.
type ExpiryWarningMsg struct {
	Remaining time.Duration
}

// ExpiredMsg indicates the token has expired. The session has already been
// cleared locally when this is delivered.
type ExpiredMsg struct{}

// ExpiryTickCmd schedules the next expiry check.
func ExpiryTickCmd() tea.Cmd {
	return tea.Tick(ExpiryTickInterval, func(t time.Time) tea.Msg {
		return ExpiryTickMsg{Time: t}
	})
}

// ExpiryWatch warns once before the token expires. It is driven by the
// Bubble Tea loop and not safe for concurrent use.
type ExpiryWatch struct {
	store         *Store
	warningBefore time.Duration
	warnedFor     time.Time
}

// NewExpiryWatch creates a watch over store.
func NewExpiryWatch(store *Store, warningBefore time.Duration) *ExpiryWatch {
	if warningBefore <= 0 {
		warningBefore = DefaultWarningBefore
	}
	return &ExpiryWatch{store: store, warningBefore: warningBefore}
}

// Remaining returns the time left on the token. ok is false for tokens
// without a known expiry.
func (w *ExpiryWatch) Remaining(now time.Time) (time.Duration, bool) {
	exp := w.store.ExpiresAt()
	if exp.IsZero() || !w.store.IsAuthenticated() {
		return 0, false
	}
	remaining := exp.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Check returns ExpiredMsg, ExpiryWarningMsg or nil for the time now.
// The warning is given once per token. Expired sessions are cleared before
// ExpiredMsg is returned.
func (w *ExpiryWatch) Check(now time.Time) tea.Msg {
	remaining, ok := w.Remaining(now)
	switch {
	case !ok:
		return nil
	case remaining == 0:
		w.store.expire()
		return ExpiredMsg{}
	case remaining <= w.warningBefore && !w.warnedFor.Equal(w.store.ExpiresAt()):
		w.warnedFor = w.store.ExpiresAt()
		return ExpiryWarningMsg{Remaining: remaining}
	}
	return nil
}

// HandleTick runs Check and schedules the next tick.
func (w *ExpiryWatch) HandleTick(msg ExpiryTickMsg) tea.Cmd {
	next := ExpiryTickCmd()
	out := w.Check(msg.Time)
	if out == nil {
		return next
	}
	return tea.Batch(func() tea.Msg { return out }, next)
}

// expire drops the session in memory; the persisted copy is cleared by the
// caller's logout path so disk errors surface there.
func (s *Store) expire() {
	s.mu.Lock()
	s.current = model.Credentials{}
	s.profile = nil
	s.mu.Unlock()
}

// FormatDuration returns a short human-readable duration such as "1m 30s".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm %ds", mins, secs)
}
