// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/healthmate/healthmate-tui/internal/forms"
	"github.com/healthmate/healthmate-tui/internal/ui/components"
)

type promptKind int

const (
	promptSaveTitle promptKind = iota
	promptProviderEmail
	promptComment
	promptHistoryEmail
)

// prompt is a single-line modal input.
type prompt struct {
	kind    promptKind
	title   string
	hint    string
	input   textinput.Model
	err     string
	chatID  string // promptHistoryEmail
	subject string
}

func newPrompt(kind promptKind, title, hint, value string, width int) *prompt {
	in := textinput.New()
	in.Prompt = "> "
	in.CharLimit = 200
	in.Width = min(width-12, 60)
	in.SetValue(value)
	in.CursorEnd()
	in.Focus()
	return &prompt{kind: kind, title: title, hint: hint, input: in}
}

func (m Model) openSavePrompt() (tea.Model, tea.Cmd) {
	conv := m.deps.Chat.Conversation()
	if conv.IsEmpty() {
		cmd := m.toast(components.ToastKindWarning, "There is nothing to save yet.")
		return m, cmd
	}
	title := conv.Title
	if title == "" {
		title = conv.SuggestedTitle()
	}
	m.prompt = newPrompt(promptSaveTitle, "Save conversation", "Title", title, m.width)
	return m, textinput.Blink
}

func (m Model) openEmailPrompt() (tea.Model, tea.Cmd) {
	if m.deps.Chat.ID() == "" {
		cmd := m.toast(components.ToastKindWarning, "Save the conversation before sending it.")
		return m, cmd
	}
	m.prompt = newPrompt(promptProviderEmail, "Send to a care provider", "Provider email", "", m.width)
	return m, textinput.Blink
}

func (m Model) openCommentPrompt(interactionID string) (tea.Model, tea.Cmd) {
	if err := m.deps.Chat.OpenComment(interactionID); err != nil {
		cmd := m.fail("feedback", err)
		return m, cmd
	}
	m.prompt = newPrompt(promptComment, "What could be better?", "Optional comment", "", m.width)
	return m, textinput.Blink
}

func (m Model) openHistoryEmailPrompt(chatID, title string) (tea.Model, tea.Cmd) {
	m.prompt = newPrompt(promptHistoryEmail, "Email \""+title+"\"", "Provider email", "", m.width)
	m.prompt.chatID = chatID
	m.prompt.subject = title
	return m, textinput.Blink
}

// =============================================================================
// UPDATE
// =============================================================================

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.prompt
	switch {
	case key.Matches(msg, m.keys.Back):
		if p.kind == promptComment {
			m.deps.Chat.CancelComment()
		}
		m.prompt = nil
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.confirmPrompt()
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.err = ""
	return m, cmd
}

func (m Model) confirmPrompt() (tea.Model, tea.Cmd) {
	p := m.prompt
	value := strings.TrimSpace(p.input.Value())

	switch p.kind {
	case promptSaveTitle:
		if value == "" {
			p.err = "Title is required"
			return m, nil
		}
		m.prompt = nil
		m.busy = true
		return m, tea.Batch(m.spinner.Tick, m.saveCmd(value))

	case promptProviderEmail, promptHistoryEmail:
		if errs := forms.Email("provider_email", value); len(errs) > 0 {
			p.err = errs.For("provider_email")
			return m, nil
		}
		m.prompt = nil
		m.busy = true
		if p.kind == promptHistoryEmail {
			ctx, bridge, id, subject := m.ctx, m.deps.History, p.chatID, p.subject
			return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
				return emailedMsg{err: bridge.Email(ctx, id, value, "", subject)}
			})
		}
		return m, tea.Batch(m.spinner.Tick, m.emailCmd(value))

	case promptComment:
		m.prompt = nil
		return m, m.commentCmd(value)
	}
	m.prompt = nil
	return m, nil
}

// =============================================================================
// VIEW
// =============================================================================

func (m Model) viewPrompt() string {
	t := m.theme
	p := m.prompt
	rows := []string{
		t.HeaderTitle.Render(p.title),
		"",
		t.FieldLabelFocused.Render(p.hint),
		p.input.View(),
	}
	if p.err != "" {
		rows = append(rows, t.FieldError.Render(p.err))
	}
	rows = append(rows, "", t.Muted.Render("Enter to confirm, Esc to cancel"))
	box := t.CommentBox.Render(strings.Join(rows, "\n"))
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, "\n"+box)
}
