// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
)

// =============================================================================
// SHARED HELPER FUNCTIONS
// =============================================================================

// FormatCount formats a count with thousand separators.
func FormatCount(n int) string {
	if n < 0 {
		return "-" + FormatCount(-n)
	}
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i := 0; i < len(s); i++ {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// fmtPercent formats a percentage with one decimal place.
func fmtPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}
