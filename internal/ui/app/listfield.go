// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/healthmate/healthmate-tui/internal/profile"
	"github.com/healthmate/healthmate-tui/internal/ui/styles"
)

// maxSuggestions caps the picker row under a list input.
const maxSuggestions = 5

// listField edits one string list of a profile draft: typed entries and
// picks from the reference list are added, backspace on an empty input
// removes the last entry.
type listField struct {
	kind    profile.List
	input   textinput.Model
	suggest int // highlighted suggestion, -1 for none
}

func newListField(kind profile.List) listField {
	in := textinput.New()
	in.Prompt = "+ "
	in.Placeholder = "type to add"
	in.CharLimit = 120
	in.Width = 40
	return listField{kind: kind, input: in, suggest: -1}
}

func (f *listField) focus() tea.Cmd {
	return f.input.Focus()
}

func (f *listField) blur() {
	f.input.Blur()
}

func (f *listField) setWidth(width int) {
	w := min(width-24, 48)
	if w < 16 {
		w = 16
	}
	f.input.Width = w
}

// matches filters the reference entries not yet added by the typed text.
func (f listField) matches(e *profile.Editor) []string {
	query := strings.ToLower(strings.TrimSpace(f.input.Value()))
	var out []string
	for _, s := range e.Suggestions(f.kind) {
		if query == "" || strings.Contains(strings.ToLower(s), query) {
			out = append(out, s)
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	return out
}

// update handles a key for the field. handled is false for keys the parent
// should act on, such as enter on an empty input.
func (f *listField) update(msg tea.KeyMsg, e *profile.Editor) (tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyEnter:
		value := strings.TrimSpace(f.input.Value())
		if m := f.matches(e); f.suggest >= 0 && f.suggest < len(m) {
			value = m[f.suggest]
		}
		if value == "" {
			return nil, false
		}
		e.Add(f.kind, value)
		f.input.Reset()
		f.suggest = -1
		return nil, true
	case tea.KeyDown:
		if n := len(f.matches(e)); n > 0 {
			f.suggest = (f.suggest + 1) % n
		}
		return nil, true
	case tea.KeyUp:
		if n := len(f.matches(e)); n > 0 {
			if f.suggest <= 0 {
				f.suggest = n - 1
			} else {
				f.suggest--
			}
		}
		return nil, true
	case tea.KeyBackspace:
		if f.input.Value() == "" {
			if items := e.Items(f.kind); len(items) > 0 {
				e.Remove(f.kind, items[len(items)-1])
			}
			return nil, true
		}
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	f.suggest = -1
	return cmd, true
}

func (f listField) view(t *styles.Theme, e *profile.Editor, focused bool) string {
	label := t.FieldLabel
	if focused {
		label = t.FieldLabelFocused
	}
	title := strings.ToUpper(f.kind.String()[:1]) + f.kind.String()[1:]
	lines := []string{label.Render(title)}

	items := e.Items(f.kind)
	if len(items) == 0 {
		lines = append(lines, t.Muted.Render("  none"))
	} else {
		chips := make([]string, len(items))
		for i, it := range items {
			chips[i] = t.Chip.Render(it)
		}
		lines = append(lines, lipgloss.NewStyle().MarginLeft(2).Render(wrapChips(chips, f.input.Width+8)))
	}

	if !focused {
		return strings.Join(lines, "\n")
	}
	lines = append(lines, "  "+f.input.View())
	if m := f.matches(e); len(m) > 0 {
		picks := make([]string, len(m))
		for i, s := range m {
			if i == f.suggest {
				picks[i] = t.ListItemSelected.Render(s)
			} else {
				picks[i] = t.ListItem.Render(s)
			}
		}
		lines = append(lines, "  "+strings.Join(picks, " "))
	}
	return strings.Join(lines, "\n")
}

// wrapChips lays bordered chips out in rows no wider than width.
func wrapChips(chips []string, width int) string {
	var rows []string
	var row []string
	used := 0
	for _, c := range chips {
		w := lipgloss.Width(c) + 1
		if used > 0 && used+w > width {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, used = nil, 0
		}
		row = append(row, c, " ")
		used += w
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
