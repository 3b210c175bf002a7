// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// SPINNER TESTS
// =============================================================================

func TestDotsSpinner(t *testing.T) {
	if len(DotsSpinner.Frames) == 0 {
		t.Error("DotsSpinner has no frames")
	}
	if DotsSpinner.FPS <= 0 {
		t.Errorf("DotsSpinner FPS = %d, want > 0", DotsSpinner.FPS)
	}
}

func TestSpinnerConfigDuration(t *testing.T) {
	if got := (SpinnerConfig{FPS: 10}).Duration(); got != 100*time.Millisecond {
		t.Errorf("Duration() at 10 FPS = %v, want 100ms", got)
	}
	if got := (SpinnerConfig{}).Duration(); got != time.Second {
		t.Errorf("zero FPS Duration() = %v, want 1s", got)
	}
}

func TestSpinnerConfigBubble(t *testing.T) {
	s := DotsSpinner.Bubble()
	if len(s.Frames) != len(DotsSpinner.Frames) {
		t.Fatalf("Bubble() frames = %d, want %d", len(s.Frames), len(DotsSpinner.Frames))
	}
	if s.FPS != DotsSpinner.Duration() {
		t.Errorf("Bubble() FPS = %v, want %v", s.FPS, DotsSpinner.Duration())
	}
}

// =============================================================================
// PROGRESS BAR TESTS
// =============================================================================

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		width   int
		percent float64
		want    string
	}{
		{10, 0, "----------"},
		{10, 50, "#####-----"},
		{10, 100, "##########"},
		{4, -20, "----"},
		{4, 250, "####"},
		{4, 6.25, ".---"},
		{4, 12.5, ":---"},
		{4, 18.75, "+---"},
		{4, 31.25, "#.--"},
	}
	for _, tc := range tests {
		if got := RenderProgressBar(tc.width, tc.percent); got != tc.want {
			t.Errorf("RenderProgressBar(%d, %.0f) = %q, want %q", tc.width, tc.percent, got, tc.want)
		}
	}
}

func TestRenderProgressBarWidth(t *testing.T) {
	for _, pct := range []float64{0, 12.5, 33.333, 66.666, 99.9} {
		if got := RenderProgressBar(20, pct); len(got) != 20 {
			t.Errorf("RenderProgressBar(20, %.3f) has width %d", pct, len(got))
		}
	}
}

func TestRenderProgressBarZeroWidth(t *testing.T) {
	if got := RenderProgressBar(0, 50); got != "" {
		t.Errorf("RenderProgressBar(0, 50) = %q, want empty", got)
	}
	if got := RenderProgressBar(-3, 50); got != "" {
		t.Errorf("RenderProgressBar(-3, 50) = %q, want empty", got)
	}
}

func TestRenderTreeLine(t *testing.T) {
	if got := RenderTreeLine(false); !strings.HasPrefix(got, "+") {
		t.Errorf("RenderTreeLine(false) = %q", got)
	}
	if got := RenderTreeLine(true); !strings.HasPrefix(got, "`") {
		t.Errorf("RenderTreeLine(true) = %q", got)
	}
}
