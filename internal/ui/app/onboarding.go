// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/healthmate/healthmate-tui/internal/model"
	"github.com/healthmate/healthmate-tui/internal/nav"
	"github.com/healthmate/healthmate-tui/internal/profile"
)

// onboardingSteps is the order of the medical list questions.
var onboardingSteps = []struct {
	kind     profile.List
	question string
}{
	{profile.Allergies, "Do you have any allergies?"},
	{profile.Medications, "Are you taking any medications?"},
	{profile.Conditions, "Any ongoing health conditions?"},
}

type onboardingView struct {
	editor *profile.Editor
	step   int
	list   listField
	saving bool
}

func newOnboardingView(p model.UserProfile) onboardingView {
	return onboardingView{
		editor: profile.Open(p),
		list:   newListField(onboardingSteps[0].kind),
	}
}

func (v *onboardingView) goTo(step int) tea.Cmd {
	v.step = step
	width := v.list.input.Width
	v.list = newListField(onboardingSteps[step].kind)
	v.list.input.Width = width
	return v.list.focus()
}

func (m Model) updateOnboarding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := &m.onboarding
	if v.saving {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Skip):
		return m.fire(nav.EventSkip)
	case key.Matches(msg, m.keys.Back):
		if v.step > 0 {
			cmd := v.goTo(v.step - 1)
			return m, cmd
		}
		return m.fire(nav.EventBack)
	case key.Matches(msg, m.keys.NextItem):
		return m.advanceOnboarding()
	}

	cmd, handled := v.list.update(msg, v.editor)
	if handled {
		return m, cmd
	}
	if key.Matches(msg, m.keys.Submit) {
		return m.advanceOnboarding()
	}
	return m, nil
}

// advanceOnboarding moves to the next question; after the last one the
// lists are sent as a partial profile update.
func (m Model) advanceOnboarding() (tea.Model, tea.Cmd) {
	v := &m.onboarding
	if v.step < len(onboardingSteps)-1 {
		cmd := v.goTo(v.step + 1)
		return m, cmd
	}
	v.saving = true
	m.busy = true
	return m, tea.Batch(m.spinner.Tick, m.profileCmd(v.editor.ListsUpdate(), true))
}

func (m Model) viewOnboarding() string {
	t := m.theme
	v := m.onboarding
	step := onboardingSteps[v.step]

	rows := []string{
		t.HeaderTitle.Render("Tell us about your health"),
		t.Muted.Render(fmt.Sprintf("Step %d of %d. This helps HealthMate tailor its guidance.", v.step+1, len(onboardingSteps))),
		"",
		t.InfoStyle.Render(step.question),
		"",
	}
	for i, s := range onboardingSteps {
		if i == v.step {
			rows = append(rows, v.list.view(t, v.editor, true), "")
		} else if items := v.editor.Items(s.kind); len(items) > 0 {
			rows = append(rows, t.Muted.Render(s.kind.String()+": "+strings.Join(items, ", ")))
		}
	}
	rows = append(rows, "")

	if v.saving {
		rows = append(rows, m.spinner.View()+" "+t.ThinkingText.Render("Saving your profile..."))
	} else {
		next := "Enter on an empty line to continue"
		if v.step == len(onboardingSteps)-1 {
			next = "Enter on an empty line to finish"
		}
		rows = append(rows, t.Muted.Render(next+", "+m.keys.Skip.Help().Key+" to skip for now."))
	}
	card := t.Card.Render(strings.Join(rows, "\n"))
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, card)
}
