// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/healthmate/healthmate-tui/internal/forms"
	"github.com/healthmate/healthmate-tui/internal/model"
	"github.com/healthmate/healthmate-tui/internal/nav"
	"github.com/healthmate/healthmate-tui/internal/profile"
	"github.com/healthmate/healthmate-tui/internal/ui/components"
)

// profileView edits the signed-in user's profile. Focus runs over the text
// fields first, then the three lists.
type profileView struct {
	editor *profile.Editor
	email  string
	fields []field
	lists  []listField
	focus  int
	errs   forms.ValidationErrors
	saving bool
}

func newProfileView(p model.UserProfile) profileView {
	name := newField("fullName", "Full name", "")
	name.input.SetValue(p.Name)
	age := newField("age", "Age", "")
	age.input.SetValue(string(p.Age))
	gender := newField("gender", "Gender", "")
	gender.input.SetValue(p.Gender)

	return profileView{
		editor: profile.Open(p),
		email:  p.Email,
		fields: []field{name, age, gender},
		lists: []listField{
			newListField(profile.Allergies),
			newListField(profile.Medications),
			newListField(profile.Conditions),
		},
	}
}

func (v *profileView) count() int {
	return len(v.fields) + len(v.lists)
}

func (v *profileView) focusCmd() tea.Cmd {
	for i := range v.fields {
		v.fields[i].input.Blur()
	}
	for i := range v.lists {
		v.lists[i].blur()
	}
	if v.focus < len(v.fields) {
		return v.fields[v.focus].input.Focus()
	}
	if i := v.focus - len(v.fields); i < len(v.lists) {
		return v.lists[i].focus()
	}
	return nil
}

func (v *profileView) move(delta int) tea.Cmd {
	if v.count() == 0 {
		return nil
	}
	v.focus = (v.focus + delta + v.count()) % v.count()
	return v.focusCmd()
}

func (v *profileView) setWidth(width int) {
	w := min(width-24, 48)
	if w < 16 {
		w = 16
	}
	for i := range v.fields {
		v.fields[i].input.Width = w
	}
	for i := range v.lists {
		v.lists[i].setWidth(width)
	}
}

// syncDraft copies the text fields into the editor draft.
func (v *profileView) syncDraft() {
	if v.editor == nil || len(v.fields) < 3 {
		return
	}
	v.editor.Draft.Name = v.fields[0].input.Value()
	v.editor.Draft.Age = model.WireAge(v.fields[1].input.Value())
	v.editor.Draft.Gender = v.fields[2].input.Value()
}

// =============================================================================
// UPDATE
// =============================================================================

func (m Model) updateProfile(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := &m.profile
	if v.saving {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Back):
		v.syncDraft()
		if v.editor.Dirty() {
			next, cmd := m.fire(nav.EventBack)
			notice := next.toast(components.ToastKindStatus, "Profile changes discarded")
			return next, tea.Batch(cmd, notice)
		}
		return m.fire(nav.EventBack)
	case key.Matches(msg, m.keys.Analytics):
		return m.fire(nav.EventOpenAnalytics)
	case key.Matches(msg, m.keys.Save):
		return m.saveProfile()
	case key.Matches(msg, m.keys.NextItem):
		cmd := v.move(1)
		return m, cmd
	case key.Matches(msg, m.keys.PrevItem):
		cmd := v.move(-1)
		return m, cmd
	}

	if v.focus < len(v.fields) {
		if key.Matches(msg, m.keys.Submit) {
			cmd := v.move(1)
			return m, cmd
		}
		var cmd tea.Cmd
		f := &v.fields[v.focus]
		f.input, cmd = f.input.Update(msg)
		v.syncDraft()
		return m, cmd
	}

	list := &v.lists[v.focus-len(v.fields)]
	cmd, handled := list.update(msg, v.editor)
	if !handled && key.Matches(msg, m.keys.Submit) {
		cmd = v.move(1)
	}
	return m, cmd
}

// saveProfile validates the draft locally before sending every editable
// field.
func (m Model) saveProfile() (tea.Model, tea.Cmd) {
	v := &m.profile
	v.syncDraft()
	if errs := v.editor.Validate(); len(errs) > 0 {
		v.errs = errs
		return m, nil
	}
	v.errs = nil
	v.saving = true
	m.busy = true
	return m, tea.Batch(m.spinner.Tick, m.profileCmd(v.editor.Update(), false))
}

func (m Model) handleProfileSaved(msg profileSavedMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.onboarding {
		m.onboarding.saving = false
		if msg.err != nil {
			cmd := m.fail("onboarding profile", msg.err)
			return m, cmd
		}
		next, cmd := m.fire(nav.EventFinish)
		notice := next.toast(components.ToastKindSuccess, "Your health profile is saved")
		return next, tea.Batch(cmd, notice)
	}

	m.profile.saving = false
	if msg.err != nil {
		if errs, ok := forms.AsValidation(msg.err); ok {
			m.profile.errs = errs
			return m, nil
		}
		cmd := m.fail("profile update", msg.err)
		return m, cmd
	}
	focus := m.profile.focus
	m.profile = newProfileView(msg.profile)
	m.profile.focus = focus
	m.profile.setWidth(m.width)
	m.syncUser()
	cmd := tea.Batch(m.profile.focusCmd(), m.toast(components.ToastKindSuccess, "Profile updated"))
	return m, cmd
}

// =============================================================================
// VIEW
// =============================================================================

func (m Model) viewProfile() string {
	t := m.theme
	v := m.profile
	if v.editor == nil {
		return ""
	}

	rows := []string{t.HeaderTitle.Render("Your profile")}
	if v.email != "" {
		rows = append(rows, t.Muted.Render(v.email))
	}
	rows = append(rows, "")

	for i, f := range v.fields {
		label := t.FieldLabel
		if i == v.focus {
			label = t.FieldLabelFocused
		}
		rows = append(rows, label.Render(f.label)+"  "+f.input.View())
		if e := v.errs.For(f.name); e != "" {
			rows = append(rows, t.FieldError.Render("  "+e))
		}
	}
	rows = append(rows, "")
	for i, l := range v.lists {
		rows = append(rows, l.view(t, v.editor, v.focus == len(v.fields)+i), "")
	}

	if v.saving {
		rows = append(rows, m.spinner.View()+" "+t.ThinkingText.Render("Saving..."))
	} else if v.editor.Dirty() {
		rows = append(rows, t.WarningStyle.Render("Unsaved changes. "+m.keys.Save.Help().Key+" to save."))
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(strings.Join(rows, "\n"))
}
