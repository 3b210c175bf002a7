// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the HealthMate TUI.

All colors are Lip Gloss AdaptiveColor values. NewTheme resolves the
background once (forced by the ui.theme setting or detected through termenv)
and pushes the answer into lipgloss, so every adaptive color and the glamour
renderer agree on light or dark.

# Color System (colors.go)

  - Teal - Brand, headers, focused fields
  - Sky - Links and suggestions
  - Emerald - Success and thumbs up
  - Amber - Abstained replies and session warnings
  - Rose - Errors, urgent replies and thumbs down

Status is never conveyed by color alone: StatusIndicators adds an ASCII
shape to every Render helper.

# Theme (theme.go)

Theme groups the styles per area: frame, chat, status bar, forms, lists and
statistics. SetSize feeds the responsive LayoutMode used by ContentWidth.

# Animations (animations.go)

SpinnerConfig values convert to bubbles spinners. RenderProgressBar draws the
ASCII rate bars on the analytics view.
*/
package styles
