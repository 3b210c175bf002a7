// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/healthmate/healthmate-tui/internal/model"
	"github.com/healthmate/healthmate-tui/internal/ui/styles"
)

// MarkdownRenderer renders ai replies. *glamour.TermRenderer satisfies it.
type MarkdownRenderer interface {
	Render(in string) (string, error)
}

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one message of the conversation.
type MessageBubble struct {
	Message       *model.Message
	Width         int
	Selected      bool // focused for feedback
	ShowTimestamp bool
	Markdown      MarkdownRenderer
	theme         *styles.Theme
}

// NewMessageBubble creates a bubble for msg.
func NewMessageBubble(msg *model.Message, theme *styles.Theme) *MessageBubble {
	if msg == nil {
		msg = model.NewSystemMessage("")
	}
	return &MessageBubble{Message: msg, Width: 80, ShowTimestamp: true, theme: theme}
}

// View renders the bubble for the message's role.
func (b *MessageBubble) View() string {
	switch b.Message.Role {
	case model.RoleUser:
		return b.renderUser()
	case model.RoleAI:
		return b.renderAI()
	default:
		return b.renderSystem()
	}
}

func (b *MessageBubble) contentWidth() int {
	w := b.Width - 8
	if w < 20 {
		w = 20
	}
	return w
}

func (b *MessageBubble) header(label string) string {
	parts := []string{b.theme.Muted.Italic(true).Render(label)}
	if b.ShowTimestamp && !b.Message.Timestamp.IsZero() {
		parts = append(parts, b.theme.Timestamp.Render(FormatTimestamp(b.Message.Timestamp, time.Now())))
	}
	return strings.Join(parts, " ")
}

// ==========================================================================
// USER BUBBLE
// ==========================================================================

func (b *MessageBubble) renderUser() string {
	content := b.Message.Content
	if content == "" {
		content = "..."
	}
	width := b.contentWidth()
	if w := lipgloss.Width(content) + 4; w < width {
		width = w
	}
	bubble := b.theme.UserBubble.Width(width).Render(content)
	block := lipgloss.JoinVertical(lipgloss.Right, b.header("you"), bubble)
	return lipgloss.PlaceHorizontal(b.Width, lipgloss.Right, block)
}

// ==========================================================================
// AI BUBBLE
// ==========================================================================

func (b *MessageBubble) renderAI() string {
	msg := b.Message
	var parts []string

	parts = append(parts, b.header("HealthMate"))

	if msg.Status == model.StatusUrgent {
		parts = append(parts, b.theme.UrgentBanner.Render(
			styles.StatusIndicators.Urgent+" This may need urgent attention. If symptoms are severe, contact emergency services."))
	}

	style := b.theme.AIBubble
	if b.Selected {
		style = style.Inherit(b.theme.Selected)
	}
	parts = append(parts, style.Width(b.contentWidth()).Render(b.renderContent()))

	if msg.Status == model.StatusAbstain {
		parts = append(parts, b.theme.AbstainNote.Render(
			"HealthMate was not confident enough to answer fully. Consider asking a clinician."))
	}

	if len(msg.Sources) > 0 {
		lines := []string{b.theme.SourceLine.Render("Sources")}
		for i, src := range msg.Sources {
			lines = append(lines, b.theme.SourceLine.Render(styles.RenderTreeLine(i == len(msg.Sources)-1)+src))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}

	if meta := b.renderMeta(); meta != "" {
		parts = append(parts, meta)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (b *MessageBubble) renderContent() string {
	content := b.Message.Content
	if content == "" {
		return "..."
	}
	if b.Markdown == nil {
		return content
	}
	out, err := b.Markdown.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

func (b *MessageBubble) renderMeta() string {
	msg := b.Message
	var parts []string
	if msg.Confidence > 0 {
		parts = append(parts, b.theme.Confidence.Render(fmt.Sprintf("confidence %s", fmtPercent(msg.Confidence*100))))
	}
	switch msg.Feedback {
	case model.FeedbackUp:
		parts = append(parts, b.theme.FeedbackUp.Render("[+] helpful"))
	case model.FeedbackDown:
		label := "[-] not helpful"
		if msg.FeedbackComment != "" {
			label += ": " + msg.FeedbackComment
		}
		parts = append(parts, b.theme.FeedbackDown.Render(label))
	default:
		if b.Selected && msg.CanRate() {
			parts = append(parts, b.theme.ShortcutKey.Render("+")+b.theme.ShortcutDesc.Render(" helpful  ")+
				b.theme.ShortcutKey.Render("-")+b.theme.ShortcutDesc.Render(" not helpful"))
		}
	}
	return strings.Join(parts, "  ")
}

// ==========================================================================
// SYSTEM NOTE
// ==========================================================================

func (b *MessageBubble) renderSystem() string {
	content := b.Message.Content
	if content == "" {
		return ""
	}
	return b.theme.SystemBubble.Width(b.contentWidth()).Render(content)
}

// FormatTimestamp renders t as a clock time today, or with the date
// otherwise.
func FormatTimestamp(t, now time.Time) string {
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("3:04 PM")
	}
	if t.Year() == now.Year() {
		return t.Format("Jan 2, 3:04 PM")
	}
	return t.Format("Jan 2 2006, 3:04 PM")
}
