// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/healthmate/healthmate-tui/internal/chat"
	"github.com/healthmate/healthmate-tui/internal/model"
	"github.com/healthmate/healthmate-tui/internal/nav"
	"github.com/healthmate/healthmate-tui/internal/ui/components"
)

// inputHeight is the compose area: top border, input line and hint.
const inputHeight = 3

// =============================================================================
// CHAT VIEW
// =============================================================================

type chatView struct {
	input    textinput.Model
	viewport viewport.Model

	// focus is true while the message list has the keyboard. selected
	// indexes the messages, or chat.Suggestions on an empty conversation.
	focus    bool
	selected int

	scrollSeq int
}

func newChatView() chatView {
	in := textinput.New()
	in.Placeholder = "Describe your symptoms or ask a health question"
	in.Prompt = "> "
	in.CharLimit = 2000
	in.Width = 70
	return chatView{input: in, viewport: viewport.New(80, 10)}
}

func (v *chatView) setSize(width, height int) {
	v.viewport.Width = width
	v.viewport.Height = max(height-inputHeight-1, 3)
	v.input.Width = max(width-6, 10)
}

// chatTargets returns the indexes the selection can land on.
func chatTargets(msgs []*model.Message) []int {
	if len(msgs) == 0 {
		out := make([]int, len(chat.Suggestions))
		for i := range out {
			out[i] = i
		}
		return out
	}
	var out []int
	for i, msg := range msgs {
		if msg.Role == model.RoleAI && msg.InteractionID != "" {
			out = append(out, i)
		}
	}
	return out
}

// =============================================================================
// UPDATE
// =============================================================================

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.chat.focus {
		return m.updateChatFocus(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.send(m.chat.input.Value())
	case key.Matches(msg, m.keys.Focus):
		targets := chatTargets(m.deps.Chat.Messages())
		if len(targets) == 0 {
			return m, nil
		}
		m.chat.focus = true
		m.chat.selected = targets[len(targets)-1]
		if m.deps.Chat.MessageCount() == 0 {
			m.chat.selected = targets[0]
		}
		m.chat.input.Blur()
		cmd := m.refreshChat()
		return m, cmd
	case key.Matches(msg, m.keys.Save):
		return m.openSavePrompt()
	case key.Matches(msg, m.keys.NewChat):
		m.deps.Chat.Reset()
		m.chat.input.Reset()
		m.lastErr = ""
		cmd := tea.Batch(m.refreshChat(), m.toast(components.ToastKindStatus, "Started a new conversation"))
		return m, cmd
	case key.Matches(msg, m.keys.Email):
		return m.openEmailPrompt()
	case key.Matches(msg, m.keys.History):
		return m.fire(nav.EventOpenHistory)
	case key.Matches(msg, m.keys.Profile):
		return m.fire(nav.EventOpenProfile)
	case key.Matches(msg, m.keys.Analytics):
		return m.fire(nav.EventOpenAnalytics)
	case key.Matches(msg, m.keys.Logout):
		if err := m.deps.Session.Logout(m.ctx); err != nil {
			m.logger.Error("logout failed", zap.Error(err))
		}
		return m.signedOut()
	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		m.chat.viewport, cmd = m.chat.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.chat.input, cmd = m.chat.input.Update(msg)
	m.deps.Chat.SetInput(m.chat.input.Value())
	return m, cmd
}

func (m Model) updateChatFocus(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	msgs := m.deps.Chat.Messages()
	targets := chatTargets(msgs)
	pos := indexOf(targets, m.chat.selected)

	switch {
	case key.Matches(msg, m.keys.Back, m.keys.Focus):
		m.chat.focus = false
		cmd := tea.Batch(m.chat.input.Focus(), m.refreshChat())
		return m, cmd
	case key.Matches(msg, m.keys.Up):
		if pos > 0 {
			m.chat.selected = targets[pos-1]
		}
	case key.Matches(msg, m.keys.Down):
		if pos >= 0 && pos < len(targets)-1 {
			m.chat.selected = targets[pos+1]
		}
	case key.Matches(msg, m.keys.Submit):
		if len(msgs) == 0 && pos >= 0 {
			m.chat.focus = false
			m.chat.input.Focus()
			return m.send(chat.Suggestions[m.chat.selected])
		}
		return m, nil
	case key.Matches(msg, m.keys.ThumbsUp):
		if target := selectedMessage(msgs, m.chat.selected); target != nil {
			if !target.CanRate() {
				cmd := m.fail("feedback", chat.ErrAlreadyRated)
				return m, cmd
			}
			return m, m.thumbsUpCmd(target.InteractionID)
		}
		return m, nil
	case key.Matches(msg, m.keys.ThumbsDn):
		if target := selectedMessage(msgs, m.chat.selected); target != nil {
			return m.openCommentPrompt(target.InteractionID)
		}
		return m, nil
	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		m.chat.viewport, cmd = m.chat.viewport.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
	m.chat.viewport.SetContent(m.renderMessages())
	return m, nil
}

func selectedMessage(msgs []*model.Message, i int) *model.Message {
	if i < 0 || i >= len(msgs) {
		return nil
	}
	if msgs[i].Role != model.RoleAI || msgs[i].InteractionID == "" {
		return nil
	}
	return msgs[i]
}

func indexOf(xs []int, v int) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

// send appends the user message and starts the exchange. Blank input is
// ignored; a second send while a reply is pending is refused.
func (m Model) send(text string) (tea.Model, tea.Cmd) {
	ex, err := m.deps.Chat.Begin(text)
	if errors.Is(err, chat.ErrEmptyMessage) {
		return m, nil
	}
	if err != nil {
		cmd := m.toast(components.ToastKindWarning, userMessage(err))
		return m, cmd
	}
	m.chat.input.Reset()
	m.deps.Chat.SetInput("")
	m.lastErr = ""
	cmd := tea.Batch(m.exchangeCmd(ex), m.spinner.Tick, m.refreshChat())
	return m, cmd
}

// =============================================================================
// RESULTS
// =============================================================================

func (m Model) handleExchange(msg exchangeMsg) (tea.Model, tea.Cmd) {
	reply, err := m.deps.Chat.Complete(msg.ex, msg.resp, msg.err)
	if errors.Is(err, chat.ErrStaleExchange) {
		m.logger.Debug("dropped reply for replaced conversation")
		return m, nil
	}
	var cmds []tea.Cmd
	if msg.err != nil {
		cmds = append(cmds, m.fail("chat", msg.err))
	} else if reply != nil && reply.Status == model.StatusUrgent {
		m.logger.Info("urgent reply", zap.String("interaction_id", reply.InteractionID))
	}
	cmds = append(cmds, m.refreshChat())
	return m, tea.Batch(cmds...)
}

func (m Model) handleFeedback(msg feedbackMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if msg.err != nil {
		cmds = append(cmds, m.fail("feedback", msg.err))
	} else {
		cmds = append(cmds, m.toast(components.ToastKindSuccess, "Thanks for your feedback"))
	}
	cmds = append(cmds, m.refreshChat())
	return m, tea.Batch(cmds...)
}

func (m Model) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	var cmd tea.Cmd
	if msg.err != nil {
		cmd = m.fail("save", msg.err)
	} else {
		m.logger.Info("conversation saved", zap.String("chat_id", msg.id))
		cmd = m.toast(components.ToastKindSuccess, "Conversation saved")
	}
	return m, cmd
}

func (m Model) handleEmailed(msg emailedMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	var cmd tea.Cmd
	if msg.err != nil {
		cmd = m.fail("email", msg.err)
	} else {
		cmd = m.toast(components.ToastKindSuccess, "Conversation sent to your provider")
	}
	return m, cmd
}

// =============================================================================
// RENDERING
// =============================================================================

// refreshChat re-renders the message list and schedules the debounced
// scroll to the bottom.
func (m *Model) refreshChat() tea.Cmd {
	m.chat.viewport.SetContent(m.renderMessages())
	m.chat.scrollSeq++
	return scrollCmd(m.chat.scrollSeq, m.cfg.ScrollDebounce())
}

func (m Model) renderMessages() string {
	msgs := m.deps.Chat.Messages()
	if len(msgs) == 0 {
		return m.renderWelcome()
	}
	width := max(m.chat.viewport.Width-1, 20)
	blocks := make([]string, 0, len(msgs))
	for i, msg := range msgs {
		if !m.cfg.UI.ShowConfidence {
			msg.Confidence = 0
		}
		b := components.NewMessageBubble(msg, m.theme)
		b.Width = width
		b.Markdown = m.markdown
		b.Selected = m.chat.focus && i == m.chat.selected
		if v := b.View(); v != "" {
			blocks = append(blocks, v)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderWelcome() string {
	t := m.theme
	name := m.deps.Session.DisplayName()
	greeting := "Hello! How are you feeling today?"
	if name != "" {
		greeting = "Hello, " + name + "! How are you feeling today?"
	}
	rows := []string{
		t.HeaderTitle.Render(greeting),
		t.Muted.Render("Describe what you are experiencing, or pick a starting point:"),
		"",
	}
	for i, s := range chat.Suggestions {
		style := t.Suggestion
		if m.chat.focus && i == m.chat.selected {
			style = style.Inherit(t.Selected)
		}
		rows = append(rows, style.Render(s))
	}
	rows = append(rows, "", t.Disclaimer.Width(max(m.chat.viewport.Width-4, 20)).Render(Disclaimer))
	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) viewChat() string {
	t := m.theme
	hint := t.Muted.Render("Enter to send")
	if m.deps.Chat.Pending() {
		hint = m.spinner.View() + " " + t.ThinkingText.Render("HealthMate is thinking...")
	} else if m.chat.focus {
		hint = t.Muted.Render("Select a reply to rate, Esc to return to typing")
	}
	compose := t.InputContainer.Width(m.width).Render(m.chat.input.View() + "\n" + hint)
	return lipgloss.JoinVertical(lipgloss.Left, m.chat.viewport.View(), compose)
}
