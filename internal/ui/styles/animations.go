// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// SpinnerConfig is a frame list played at a fixed rate.
type SpinnerConfig struct {
	Frames []string
	FPS    int
}

// DotsSpinner is shown while a reply is pending.
var DotsSpinner = SpinnerConfig{
	Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
	FPS:    6,
}

// Duration is the time one frame stays on screen. A non-positive FPS
// falls back to one frame per second.
func (s SpinnerConfig) Duration() time.Duration {
	if s.FPS <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(s.FPS)
}

// Bubble returns the config as a bubbles spinner.
func (s SpinnerConfig) Bubble() spinner.Spinner {
	return spinner.Spinner{Frames: s.Frames, FPS: s.Duration()}
}

const (
	barFilled = "#"
	barEmpty  = "-"
)

// barQuarters marks a cell that is at least one, two or three quarters full.
var barQuarters = [3]string{".", ":", "+"}

// RenderProgressBar draws percent (clamped to 0-100) as an ASCII bar exactly
// width cells wide. A partly filled cell is drawn in quarter steps.
func RenderProgressBar(width int, percent float64) string {
	if width <= 0 {
		return ""
	}
	percent = max(0, min(100, percent))

	cells := float64(width) * percent / 100
	full := min(int(cells), width)

	partial := ""
	if full < width {
		if q := int((cells - float64(full)) * 4); q > 0 {
			partial = barQuarters[q-1]
		}
	}

	return strings.Repeat(barFilled, full) + partial +
		strings.Repeat(barEmpty, width-full-len(partial))
}

// RenderTreeLine is the prefix for one entry of a source list.
func RenderTreeLine(isLast bool) string {
	if isLast {
		return "`- "
	}
	return "+- "
}
