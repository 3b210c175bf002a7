// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/healthmate/healthmate-tui/internal/ui/styles"
)

// =============================================================================
// STATUS
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusWaiting
	StatusLoading
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusWaiting:
		return "Waiting for reply..."
	case StatusLoading:
		return "Loading..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns a shape indicator so status never depends on color alone.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusWaiting, StatusLoading:
		return "[.]"
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// Shortcut is one key hint in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the bottom line: status on the left, key hints on the right.
type StatusBar struct {
	Status    Status
	Detail    string // e.g. session expiry countdown
	Shortcuts []Shortcut
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the status bar. Shortcuts that do not fit are dropped from
// the end; in narrow layouts only the status is shown.
func (s *StatusBar) View() string {
	left := s.statusStyle().Render(s.Status.Icon() + " " + s.Status.String())
	if s.Detail != "" {
		left += s.theme.Muted.Render("  " + s.Detail)
	}

	avail := s.Width - lipgloss.Width(left) - 4
	var hints []string
	used := 0
	if s.Width >= 60 {
		for _, sc := range s.Shortcuts {
			hint := s.theme.ShortcutKey.Render(sc.Key) + " " + s.theme.ShortcutDesc.Render(sc.Desc)
			w := lipgloss.Width(hint) + 2
			if used+w > avail {
				break
			}
			hints = append(hints, hint)
			used += w
		}
	}
	right := strings.Join(hints, "  ")

	gap := s.Width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return s.theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *StatusBar) statusStyle() lipgloss.Style {
	switch s.Status {
	case StatusError:
		return s.theme.ErrorStyle
	case StatusWaiting, StatusLoading:
		return s.theme.ThinkingText
	default:
		return s.theme.SuccessStyle
	}
}
