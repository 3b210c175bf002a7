// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/healthmate/healthmate-tui/internal/ui/styles"
)

// =============================================================================
// SESSION EXPIRY OVERLAY
// =============================================================================

// ExpiryOverlay tells the user their sign-in token is about to expire or has
// expired. There is no silent refresh, so the only way forward after expiry
// is signing in again.
type ExpiryOverlay struct {
	visible   bool
	expired   bool
	remaining time.Duration

	width  int
	height int
}

// NewExpiryOverlay creates a hidden overlay.
func NewExpiryOverlay() ExpiryOverlay {
	return ExpiryOverlay{}
}

// SetSize sets the overlay dimensions.
func (o *ExpiryOverlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// ShowWarning displays the countdown.
func (o *ExpiryOverlay) ShowWarning(remaining time.Duration) {
	o.visible = true
	o.expired = false
	o.remaining = remaining
}

// ShowExpired displays the expired notice.
func (o *ExpiryOverlay) ShowExpired() {
	o.visible = true
	o.expired = true
	o.remaining = 0
}

// Hide hides the overlay.
func (o *ExpiryOverlay) Hide() {
	o.visible = false
	o.expired = false
}

// IsVisible returns whether the overlay is currently visible.
func (o *ExpiryOverlay) IsVisible() bool {
	return o.visible
}

// IsExpired returns whether the overlay shows the expired notice.
func (o *ExpiryOverlay) IsExpired() bool {
	return o.expired
}

// View renders the overlay, or "" when hidden.
func (o ExpiryOverlay) View() string {
	if !o.visible {
		return ""
	}

	width, height := o.width, o.height
	if width == 0 {
		width = 60
	}
	if height == 0 {
		height = 24
	}
	boxWidth := width - 8
	if boxWidth < 36 {
		boxWidth = 36
	}
	if boxWidth > 60 {
		boxWidth = 60
	}

	color := styles.Amber
	title := styles.StatusIndicators.Warning + " Session expiring"
	body := "Your sign-in expires in " +
		lipgloss.NewStyle().Foreground(styles.Amber).Bold(true).Render(formatTimeRemaining(o.remaining)) +
		". Save your conversation now; you will need to sign in again."
	hint := "Press any key to continue"
	if o.expired {
		color = styles.Rose
		title = styles.StatusIndicators.Error + " Session expired"
		body = "Your session has expired. Unsaved messages in this conversation are lost when you sign in again."
		hint = "Press any key to sign in"
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.NewStyle().Foreground(color).Bold(true).Render(title),
		"",
		lipgloss.NewStyle().Foreground(styles.TextPrimary).Width(boxWidth-6).Align(lipgloss.Center).Render(body),
		"",
		lipgloss.NewStyle().Foreground(styles.TextSecondary).Italic(true).Render(hint),
	)

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(color).
		Padding(1, 2).
		Width(boxWidth).
		Align(lipgloss.Center).
		Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// formatTimeRemaining formats a duration as M:SS for display.
func formatTimeRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
