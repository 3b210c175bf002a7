// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultSourceLabel replaces a source id that cleans to nothing.
const DefaultSourceLabel = "Medical Reference"

const chunkMarker = "#chunk_"

var sourceExtensions = []string{".md", ".pdf"}

// SourceLabel turns a retrieved document id such as
// "guides/flu_care.pdf#chunk_3" into a display label ("Guides / Flu Care").
// Applying it to its own output returns the same label.
func SourceLabel(id string) string {
	label := cleanSource(id)
	// A cleaned label can expose a new extension ("x.pdf_" -> "X.pdf").
	for i := 0; i < maxCleanPasses; i++ {
		next := cleanSource(label)
		if next == label {
			break
		}
		label = next
	}
	return label
}

const maxCleanPasses = 4

func cleanSource(id string) string {
	if i := strings.Index(id, chunkMarker); i >= 0 {
		id = id[:i]
	}
	id = strings.TrimSpace(id)
	for stripped := true; stripped; {
		stripped = false
		lower := strings.ToLower(id)
		for _, ext := range sourceExtensions {
			if strings.HasSuffix(lower, ext) {
				id = strings.TrimSpace(id[:len(id)-len(ext)])
				stripped = true
				break
			}
		}
	}

	// cases.Caser keeps state between calls, so one per label.
	title := cases.Title(language.English)
	segments := strings.FieldsFunc(id, func(r rune) bool { return r == '/' || r == '\\' })
	labels := make([]string, 0, len(segments))
	for _, seg := range segments {
		words := strings.Fields(strings.ReplaceAll(seg, "_", " "))
		if len(words) == 0 {
			continue
		}
		labels = append(labels, title.String(strings.Join(words, " ")))
	}
	if len(labels) == 0 {
		return DefaultSourceLabel
	}
	return strings.Join(labels, " / ")
}

// SourceLabels maps SourceLabel over ids.
func SourceLabels(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = SourceLabel(id)
	}
	return out
}
