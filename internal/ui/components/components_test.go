// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/healthmate/healthmate-tui/internal/model"
	"github.com/healthmate/healthmate-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme(styles.ModeDark)
}

// =============================================================================
// HEADER TESTS
// =============================================================================

func TestHeaderView(t *testing.T) {
	h := NewHeader(testTheme())
	h.SetWidth(80)
	h.Subtitle = "Chat"
	h.User = "Ann Lee"

	out := h.View()
	for _, want := range []string{"HealthMate", "Chat", "Ann Lee"} {
		if !strings.Contains(out, want) {
			t.Errorf("header missing %q:\n%s", want, out)
		}
	}
}

func TestHeaderMinimumWidth(t *testing.T) {
	h := NewHeader(testTheme())
	h.SetWidth(10)
	if w := lipgloss.Width(h.View()); w < 40 {
		t.Errorf("header width = %d, want at least 40", w)
	}
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusReady, "Ready"},
		{StatusWaiting, "Waiting for reply..."},
		{StatusLoading, "Loading..."},
		{StatusError, "Error"},
		{Status(42), "Unknown"},
	}
	for _, tc := range tests {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestStatusBarShortcuts(t *testing.T) {
	s := NewStatusBar(testTheme())
	s.Shortcuts = []Shortcut{{"ctrl+s", "save"}, {"ctrl+h", "history"}}

	s.SetWidth(100)
	if out := s.View(); !strings.Contains(out, "save") || !strings.Contains(out, "history") {
		t.Errorf("wide status bar should show shortcuts:\n%s", out)
	}

	s.SetWidth(50)
	if out := s.View(); strings.Contains(out, "history") {
		t.Errorf("narrow status bar should drop shortcuts:\n%s", out)
	}
}

// =============================================================================
// TOAST TESTS
// =============================================================================

func TestToastManagerExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewToastManager()
	m.now = func() time.Time { return now }

	m.AddSuccess("Saved")
	m.AddError("Failed")
	if got := len(m.Toasts()); got != 2 {
		t.Fatalf("toasts = %d, want 2", got)
	}

	now = now.Add(DefaultToastDuration)
	left := m.Sweep()
	if len(left) != 1 || left[0].Kind != ToastKindError {
		t.Fatalf("after 4s only the error toast should remain, got %+v", left)
	}

	now = now.Add(ErrorToastDuration)
	if left := m.Sweep(); len(left) != 0 {
		t.Errorf("all toasts should have expired, got %+v", left)
	}
}

func TestToastManagerKeepsNewest(t *testing.T) {
	m := NewToastManager()
	for _, s := range []string{"a", "b", "c", "d"} {
		m.AddStatus(s)
	}
	toasts := m.Toasts()
	if len(toasts) != 3 {
		t.Fatalf("toasts = %d, want 3", len(toasts))
	}
	if toasts[0].Message != "d" || toasts[2].Message != "b" {
		t.Errorf("unexpected order: %+v", toasts)
	}
	m.Clear()
	if len(m.Toasts()) != 0 {
		t.Error("Clear should remove every toast")
	}
}

func TestRenderToastStack(t *testing.T) {
	now := time.Now()
	toasts := []Toast{
		{ID: 2, Message: "newest", Kind: ToastKindSuccess, CreatedAt: now, Duration: DefaultToastDuration},
		{ID: 1, Message: "older", Kind: ToastKindError, CreatedAt: now, Duration: ErrorToastDuration},
	}
	out := RenderToastStack(toasts, 80, now)
	if strings.Index(out, "older") > strings.Index(out, "newest") {
		t.Errorf("newest toast should render last:\n%s", out)
	}
	if !strings.Contains(out, styles.StatusIndicators.Error) {
		t.Error("error toast should carry the error indicator")
	}
	if RenderToastStack(nil, 80, now) != "" {
		t.Error("empty stack should render nothing")
	}
}

// =============================================================================
// EXPIRY OVERLAY TESTS
// =============================================================================

func TestExpiryOverlay(t *testing.T) {
	o := NewExpiryOverlay()
	if o.View() != "" {
		t.Fatal("hidden overlay should render nothing")
	}

	o.SetSize(80, 24)
	o.ShowWarning(90 * time.Second)
	if out := o.View(); !strings.Contains(out, "1:30") {
		t.Errorf("warning should show the countdown:\n%s", out)
	}

	o.ShowExpired()
	if !o.IsExpired() || !strings.Contains(o.View(), "Session expired") {
		t.Error("expired overlay should say so")
	}

	o.Hide()
	if o.IsVisible() || o.IsExpired() {
		t.Error("Hide should reset the overlay")
	}
}

func TestFormatTimeRemaining(t *testing.T) {
	tests := map[time.Duration]string{
		-time.Second:      "0:00",
		0:                 "0:00",
		59 * time.Second:  "0:59",
		125 * time.Second: "2:05",
	}
	for d, want := range tests {
		if got := formatTimeRemaining(d); got != want {
			t.Errorf("formatTimeRemaining(%v) = %q, want %q", d, got, want)
		}
	}
}

// =============================================================================
// MESSAGE BUBBLE TESTS
// =============================================================================

type upperRenderer struct{ err error }

func (r upperRenderer) Render(in string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "\n" + strings.ToUpper(in) + "\n", nil
}

func TestMessageBubble_AIReply(t *testing.T) {
	msg := model.NewAIMessage("rest and fluids")
	msg.Status = model.StatusUrgent
	msg.Confidence = 1
	msg.Sources = []string{"Flu Care", "Fever"}
	msg.InteractionID = "ix-1"

	b := NewMessageBubble(msg, testTheme())
	b.Markdown = upperRenderer{}
	b.Selected = true
	out := b.View()

	for _, want := range []string{"REST AND FLUIDS", "urgent attention", "Flu Care", "Fever", "100.0%", "not helpful"} {
		if !strings.Contains(out, want) {
			t.Errorf("ai bubble missing %q:\n%s", want, out)
		}
	}
}

func TestMessageBubble_MarkdownFailureFallsBack(t *testing.T) {
	msg := model.NewAIMessage("plain text")
	b := NewMessageBubble(msg, testTheme())
	b.Markdown = upperRenderer{err: errors.New("boom")}
	if out := b.View(); !strings.Contains(out, "plain text") {
		t.Errorf("render error should fall back to raw content:\n%s", out)
	}
}

func TestMessageBubble_FeedbackState(t *testing.T) {
	msg := model.NewAIMessage("ok")
	msg.InteractionID = "ix-2"
	msg.Feedback = model.FeedbackDown
	msg.FeedbackComment = "too vague"

	out := NewMessageBubble(msg, testTheme()).View()
	if !strings.Contains(out, "too vague") {
		t.Errorf("thumbs-down comment should be shown:\n%s", out)
	}

	msg.Feedback = model.FeedbackUp
	if out := NewMessageBubble(msg, testTheme()).View(); !strings.Contains(out, "[+] helpful") {
		t.Errorf("thumbs-up state should be shown:\n%s", out)
	}
}

func TestMessageBubble_AbstainAndUser(t *testing.T) {
	ai := model.NewAIMessage("not sure")
	ai.Status = model.StatusAbstain
	if out := NewMessageBubble(ai, testTheme()).View(); !strings.Contains(out, "not confident") {
		t.Errorf("abstain note missing:\n%s", out)
	}

	user := NewMessageBubble(model.NewUserMessage("my head hurts"), testTheme())
	user.Width = 60
	if out := user.View(); !strings.Contains(out, "my head hurts") || !strings.Contains(out, "you") {
		t.Errorf("user bubble missing content:\n%s", out)
	}
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Date(2025, 3, 10, 9, 5, 0, 0, time.UTC), "9:05 AM"},
		{time.Date(2025, 1, 2, 13, 0, 0, 0, time.UTC), "Jan 2, 1:00 PM"},
		{time.Date(2024, 12, 31, 8, 0, 0, 0, time.UTC), "Dec 31 2024, 8:00 AM"},
	}
	for _, tc := range tests {
		if got := FormatTimestamp(tc.t, now); got != tc.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tc.t, got, tc.want)
		}
	}
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestFormatCount(t *testing.T) {
	tests := map[int]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -4200: "-4,200"}
	for n, want := range tests {
		if got := FormatCount(n); got != want {
			t.Errorf("FormatCount(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFmtPercent(t *testing.T) {
	if got := fmtPercent(66.666); got != "66.7%" {
		t.Errorf("fmtPercent(66.666) = %q", got)
	}
	if got := fmtPercent(0); got != "0.0%" {
		t.Errorf("fmtPercent(0) = %q", got)
	}
}
