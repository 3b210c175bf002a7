// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/healthmate/healthmate-tui/internal/model"
)

// Disclaimer closes every Markdown transcript.
const Disclaimer = "HealthMate provides general information only and is not a substitute for professional medical advice."

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a conversation to Markdown format.
func (e *MarkdownExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}
	if len(conv.Messages) == 0 {
		return nil, ErrEmptyConversation
	}

	var sb strings.Builder
	title := conv.DisplayTitle()
	exported := e.options.now()

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(title))
		if conv.ID != "" {
			fmt.Fprintf(&sb, "id: %s\n", escapeYAML(conv.ID))
		}
		if !conv.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, "date: %s\n", conv.CreatedAt.Format(time.RFC3339))
		}
		fmt.Fprintf(&sb, "messages: %d\n", len(conv.Messages))
		fmt.Fprintf(&sb, "exported: %s\n", exported.Format(time.RFC3339))
		sb.WriteString("generator: healthmate-tui\n")
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))

	for i, msg := range conv.Messages {
		label := msg.Role.DisplayName()
		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(msg.Timestamp))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", label)
		}

		if msg.Role == model.RoleAI && msg.Status == model.StatusUrgent {
			sb.WriteString("> **Urgent:** this may need prompt medical attention.\n\n")
		}

		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")

		if msg.Role == model.RoleAI {
			if details := e.formatReplyDetails(msg); details != "" {
				sb.WriteString(details)
				sb.WriteString("\n\n")
			}
		}

		if i < len(conv.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	fmt.Fprintf(&sb, "*%s*\n\n", Disclaimer)
	fmt.Fprintf(&sb, "*Exported from HealthMate on %s*\n", exported.Format("January 2, 2006 at 3:04 PM"))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatReplyDetails lists sources, confidence and feedback of a reply.
func (e *MarkdownExporter) formatReplyDetails(msg *model.Message) string {
	var lines []string

	if e.options.IncludeSources && len(msg.Sources) > 0 {
		lines = append(lines, "**Sources:**")
		for _, src := range msg.Sources {
			lines = append(lines, "- "+src)
		}
		lines = append(lines, "")
	}

	var parts []string
	if e.options.IncludeMetadata && msg.Confidence > 0 {
		parts = append(parts, fmt.Sprintf("Confidence: %.0f%%", msg.Confidence*100))
	}
	switch msg.Feedback {
	case model.FeedbackUp:
		parts = append(parts, "Rated helpful")
	case model.FeedbackDown:
		rated := "Rated not helpful"
		if msg.FeedbackComment != "" {
			rated += fmt.Sprintf(" (%q)", msg.FeedbackComment)
		}
		parts = append(parts, rated)
	}
	if len(parts) > 0 {
		lines = append(lines, fmt.Sprintf("<sub>%s</sub>", strings.Join(parts, " | ")))
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes a YAML scalar when it contains special characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
