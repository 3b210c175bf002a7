// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/healthmate/healthmate-tui/internal/ui/styles"
	"github.com/healthmate/healthmate-tui/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar shown above every screen.
type Header struct {
	Title    string // Brand, "HealthMate" by default
	Subtitle string // Screen or conversation title
	User     string // Signed-in display name, empty when signed out
	Width    int
	theme    *styles.Theme
}

// NewHeader creates a header with the default brand.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{Title: "HealthMate", Width: 80, theme: theme}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// View renders the brand on the left and the user on the right.
func (h *Header) View() string {
	width := h.Width
	if width < 40 {
		width = 40
	}
	inner := width - 2

	left := h.theme.Brand.Render("+ " + h.Title)
	if h.Subtitle != "" {
		left += h.theme.HeaderSubtitle.Render("  " + util.TruncateWidth(h.Subtitle, inner/2))
	}

	right := ""
	if h.User != "" {
		right = h.theme.Muted.Render(util.TruncateWidth(h.User, inner/3))
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + right
	return h.theme.Header.Width(width).Render(line)
}
