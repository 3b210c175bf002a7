// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/healthmate/healthmate-tui/internal/history"
	"github.com/healthmate/healthmate-tui/internal/nav"
	"github.com/healthmate/healthmate-tui/internal/ui/components"
	"github.com/healthmate/healthmate-tui/internal/util"
)

type historyView struct {
	entries []history.Entry
	cursor  int
	loading bool
	err     string
}

func (v historyView) selected() (history.Entry, bool) {
	if v.cursor < 0 || v.cursor >= len(v.entries) {
		return history.Entry{}, false
	}
	return v.entries[v.cursor], true
}

func (m Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := &m.history
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.fire(nav.EventBack)
	case key.Matches(msg, m.keys.Profile):
		return m.fire(nav.EventOpenProfile)
	case key.Matches(msg, m.keys.Analytics):
		return m.fire(nav.EventOpenAnalytics)
	}
	if v.loading {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up, m.keys.PrevItem):
		if v.cursor > 0 {
			v.cursor--
		}
	case key.Matches(msg, m.keys.Down, m.keys.NextItem):
		if v.cursor < len(v.entries)-1 {
			v.cursor++
		}
	case key.Matches(msg, m.keys.Refresh):
		v.loading = true
		v.err = ""
		m.busy = true
		return m, tea.Batch(m.spinner.Tick, m.listCmd())
	case key.Matches(msg, m.keys.Submit):
		if e, ok := v.selected(); ok {
			v.loading = true
			m.busy = true
			return m, tea.Batch(m.spinner.Tick, m.loadCmd(e.ID))
		}
	case key.Matches(msg, m.keys.Email):
		if e, ok := v.selected(); ok {
			return m.openHistoryEmailPrompt(e.ID, e.Title)
		}
	}
	return m, nil
}

func (m Model) handleHistoryList(msg historyListMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.history.loading = false
	if msg.err != nil {
		m.history.err = userMessage(msg.err)
		cmd := m.fail("list chats", msg.err)
		return m, cmd
	}
	m.history.entries = msg.entries
	m.history.err = ""
	if m.history.cursor >= len(msg.entries) {
		m.history.cursor = max(len(msg.entries)-1, 0)
	}
	return m, nil
}

// handleChatLoaded opens the loaded conversation on the chat screen.
func (m Model) handleChatLoaded(msg chatLoadedMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.history.loading = false
	if msg.err != nil {
		cmd := m.fail("load chat", msg.err)
		return m, cmd
	}
	m.chat = newChatView()
	m.resize(m.width, m.height)
	return m.fire(nav.EventSelectChat)
}

// =============================================================================
// VIEW
// =============================================================================

func (m Model) viewHistory() string {
	t := m.theme
	v := m.history

	rows := []string{t.HeaderTitle.Render("Saved conversations"), ""}
	switch {
	case v.loading && len(v.entries) == 0:
		rows = append(rows, m.spinner.View()+" "+t.ThinkingText.Render("Loading your conversations..."))
	case v.err != "" && len(v.entries) == 0:
		rows = append(rows, t.ErrorStyle.Render(v.err), t.Muted.Render("Press "+m.keys.Refresh.Help().Key+" to try again."))
	case len(v.entries) == 0:
		rows = append(rows, t.Muted.Render("No saved conversations yet. Save one from the chat screen with "+
			m.keys.Save.Help().Key+"."))
	default:
		rows = append(rows, m.historyRows()...)
		if v.loading {
			rows = append(rows, "", m.spinner.View()+" "+t.ThinkingText.Render("Opening conversation..."))
		}
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(strings.Join(rows, "\n"))
}

// historyRows renders the entries around the cursor that fit the screen.
// Each entry takes three lines.
func (m Model) historyRows() []string {
	t := m.theme
	v := m.history
	width := max(m.width-8, 20)
	visible := max((m.height-8)/3, 1)
	start := 0
	if v.cursor >= visible {
		start = v.cursor - visible + 1
	}
	end := min(start+visible, len(v.entries))

	now := time.Now()
	var rows []string
	for i := start; i < end; i++ {
		e := v.entries[i]
		title := util.TruncateWidth(e.Title, width-4)
		meta := fmt.Sprintf("%s  %s", components.FormatTimestamp(e.DisplayTime, now), pluralMessages(e.MessageCount))
		preview := util.TruncateWidth(util.OneLine(e.Preview), max(width-lipgloss.Width(meta)-6, 8))
		if i == v.cursor {
			rows = append(rows, t.ListItemSelected.Width(width).Render("> "+title))
		} else {
			rows = append(rows, t.ListTitle.Render("  "+title))
		}
		rows = append(rows, t.ListMeta.Render("  "+meta)+"  "+t.ListPreview.Render(preview), "")
	}
	if len(v.entries) > visible {
		rows = append(rows, t.Muted.Render(fmt.Sprintf("%d of %d", v.cursor+1, len(v.entries))))
	}
	return rows
}

func pluralMessages(n int) string {
	if n == 1 {
		return "1 message"
	}
	return fmt.Sprintf("%d messages", n)
}
