// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"auto", ModeAuto, false},
		{"Dark", ModeDark, false},
		{" light ", ModeLight, false},
		{"", ModeAuto, false},
		{"neon", ModeAuto, true},
	}
	for _, tc := range tests {
		got, err := ParseMode(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewTheme_ForcedModes(t *testing.T) {
	dark := NewTheme(ModeDark)
	if !dark.IsDark || dark.GlamourStyle() != "dark" {
		t.Errorf("dark theme: IsDark=%v glamour=%q", dark.IsDark, dark.GlamourStyle())
	}
	if !lipgloss.HasDarkBackground() {
		t.Error("dark theme should set lipgloss background to dark")
	}

	light := NewTheme(ModeLight)
	if light.IsDark || light.GlamourStyle() != "light" {
		t.Errorf("light theme: IsDark=%v glamour=%q", light.IsDark, light.GlamourStyle())
	}
	if lipgloss.HasDarkBackground() {
		t.Error("light theme should set lipgloss background to light")
	}
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewTheme(ModeDark)
	styles := map[string]lipgloss.Style{
		"UserBubble":   theme.UserBubble,
		"AIBubble":     theme.AIBubble,
		"UrgentBanner": theme.UrgentBanner,
		"Card":         theme.Card,
		"StatusBar":    theme.StatusBar,
		"ListItem":     theme.ListItem,
	}
	for name, s := range styles {
		if out := s.Render("test"); !strings.Contains(out, "test") {
			t.Errorf("%s.Render dropped its content: %q", name, out)
		}
	}
}

// =============================================================================
// LAYOUT TESTS
// =============================================================================

func TestGetLayoutMode(t *testing.T) {
	theme := NewTheme(ModeDark)
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
	}
	for _, tc := range tests {
		theme.SetSize(tc.width, 30)
		if got := theme.GetLayoutMode(); got != tc.want {
			t.Errorf("width %d: layout = %v, want %v", tc.width, got, tc.want)
		}
	}
}

func TestContentWidth(t *testing.T) {
	theme := NewTheme(ModeDark)
	theme.SetSize(120, 40)
	if got := theme.ContentWidth(); got != 90 {
		t.Errorf("wide ContentWidth = %d, want 90", got)
	}
	theme.SetSize(10, 10)
	if got := theme.ContentWidth(); got != 20 {
		t.Errorf("tiny ContentWidth = %d, want floor of 20", got)
	}
}

// =============================================================================
// RENDER HELPER TESTS
// =============================================================================

func TestRenderHelpersCarryIndicators(t *testing.T) {
	tests := []struct {
		name      string
		got       string
		indicator string
	}{
		{"success", RenderSuccess("saved"), StatusIndicators.Success},
		{"error", RenderError("failed"), StatusIndicators.Error},
		{"warning", RenderWarning("soon"), StatusIndicators.Warning},
		{"info", RenderInfo("note"), StatusIndicators.Info},
	}
	for _, tc := range tests {
		if !strings.Contains(tc.got, tc.indicator) {
			t.Errorf("%s: %q missing indicator %q", tc.name, tc.got, tc.indicator)
		}
	}
	if !strings.Contains(RenderLink("docs"), "docs") {
		t.Error("RenderLink dropped its text")
	}
}
