// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/healthmate/healthmate-tui/internal/model"
	"github.com/healthmate/healthmate-tui/internal/nav"
	"github.com/healthmate/healthmate-tui/internal/ui/components"
	"github.com/healthmate/healthmate-tui/internal/ui/styles"
)

type analyticsView struct {
	data     model.Analytics
	loaded   bool
	loading  bool
	err      string
	approval progress.Model
	coverage progress.Model
}

func newAnalyticsView(width int, isDark bool) analyticsView {
	pick := func(c lipgloss.AdaptiveColor) string {
		if isDark {
			return c.Dark
		}
		return c.Light
	}
	v := analyticsView{
		approval: progress.New(progress.WithSolidFill(pick(styles.Emerald)), progress.WithoutPercentage()),
		coverage: progress.New(progress.WithSolidFill(pick(styles.Sky)), progress.WithoutPercentage()),
	}
	v.setWidth(width)
	return v
}

func (v *analyticsView) setWidth(width int) {
	w := min(max(width-30, 10), 50)
	v.approval.Width = w
	v.coverage.Width = w
}

func (m Model) updateAnalytics(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.fire(nav.EventBack)
	case key.Matches(msg, m.keys.Profile):
		return m.fire(nav.EventOpenProfile)
	case key.Matches(msg, m.keys.Refresh):
		if m.analytics.loading {
			return m, nil
		}
		m.analytics.loading = true
		m.analytics.err = ""
		m.busy = true
		return m, tea.Batch(m.spinner.Tick, m.analyticsCmd())
	}
	return m, nil
}

func (m Model) handleAnalytics(msg analyticsMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.analytics.loading = false
	if msg.err != nil {
		m.analytics.err = userMessage(msg.err)
		cmd := m.fail("analytics", msg.err)
		return m, cmd
	}
	m.analytics.data = msg.data
	m.analytics.loaded = true
	return m, nil
}

func (m Model) viewAnalytics() string {
	t := m.theme
	v := m.analytics

	rows := []string{t.HeaderTitle.Render("Feedback analytics"), ""}
	switch {
	case !v.loaded && v.loading:
		rows = append(rows, m.spinner.View()+" "+t.ThinkingText.Render("Loading analytics..."))
	case !v.loaded && v.err != "":
		rows = append(rows, t.ErrorStyle.Render(v.err), t.Muted.Render("Press "+m.keys.Refresh.Help().Key+" to try again."))
	case v.loaded:
		d := v.data
		stat := func(label string, value string) string {
			return t.StatsLabel.Render(fmt.Sprintf("%-22s", label)) + t.StatsValue.Render(value)
		}
		rows = append(rows,
			stat("Total interactions", components.FormatCount(d.TotalInteractions)),
			stat("With feedback", components.FormatCount(d.TotalWithFeedback)),
			stat("Helpful", components.FormatCount(d.TotalThumbsUp)),
			stat("Not helpful", components.FormatCount(d.TotalThumbsDown)),
			"",
			t.StatsLabel.Render(fmt.Sprintf("%-22s", "Approval"))+v.approval.ViewAs(clampRatio(d.ThumbsUpRate))+
				t.StatsValue.Render(fmt.Sprintf(" %.1f%%", clampRatio(d.ThumbsUpRate)*100)),
			t.StatsLabel.Render(fmt.Sprintf("%-22s", "Feedback coverage"))+v.coverage.ViewAs(clampRatio(d.FeedbackRate()))+
				t.StatsValue.Render(fmt.Sprintf(" %.1f%%", clampRatio(d.FeedbackRate())*100)),
		)
		if d.TotalInteractions == 0 {
			rows = append(rows, "", t.Muted.Render("No interactions recorded yet."))
		}
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(strings.Join(rows, "\n"))
}

func clampRatio(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}
