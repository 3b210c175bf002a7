// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmate/healthmate-tui/internal/model"
)

var fixedNow = time.Date(2025, 2, 3, 14, 5, 0, 0, time.UTC)

func sampleConversation() *model.Conversation {
	conv := model.NewConversation()
	conv.ID = "chat-1"
	conv.Title = "Headache: 3 days"
	conv.AddUserMessage("I have a persistent headache")

	reply := model.NewAIMessage("Stay hydrated and rest.")
	reply.Status = model.StatusUrgent
	reply.Confidence = model.StatusUrgent.Confidence()
	reply.Sources = []string{"Guides / Headache"}
	reply.Feedback = model.FeedbackDown
	reply.FeedbackComment = "too generic"
	conv.AddMessage(reply)
	return conv
}

func testOptions() *Options {
	opts := DefaultOptions()
	opts.Now = func() time.Time { return fixedNow }
	return opts
}

func TestMarkdown(t *testing.T) {
	out, err := NewMarkdownExporter(testOptions()).Export(sampleConversation())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\ntitle: \"Headache: 3 days\"\n"))
	assert.Contains(t, md, "id: chat-1")
	assert.Contains(t, md, "# Headache: 3 days")
	assert.Contains(t, md, "### You")
	assert.Contains(t, md, "### HealthMate")
	assert.Contains(t, md, "**Urgent:**")
	assert.Contains(t, md, "- Guides / Headache")
	assert.Contains(t, md, "Confidence: 100%")
	assert.Contains(t, md, `Rated not helpful ("too generic")`)
	assert.Contains(t, md, Disclaimer)
	assert.Contains(t, md, "February 3, 2025")
}

func TestMarkdown_MinimalOptions(t *testing.T) {
	out, err := NewMarkdownExporter(&Options{Now: testOptions().Now}).Export(sampleConversation())
	require.NoError(t, err)
	md := string(out)

	assert.False(t, strings.HasPrefix(md, "---"))
	assert.Contains(t, md, "### You\n\n")
	assert.NotContains(t, md, "Sources")
	assert.NotContains(t, md, "Confidence")
	assert.Contains(t, md, "Rated not helpful", "feedback is always shown")
}

func TestMarkdown_Errors(t *testing.T) {
	e := NewMarkdownExporter(nil)
	_, err := e.Export(nil)
	assert.ErrorIs(t, err, ErrNilConversation)
	_, err = e.Export(model.NewConversation())
	assert.ErrorIs(t, err, ErrEmptyConversation)
}

func TestJSON(t *testing.T) {
	out, err := NewJSONExporter(testOptions()).Export(sampleConversation())
	require.NoError(t, err)

	var doc struct {
		Generator    string `json:"generator"`
		Conversation struct {
			ID       string `json:"id"`
			Messages []struct {
				Type     string   `json:"type"`
				Sources  []string `json:"sources"`
				Feedback int      `json:"feedback"`
			} `json:"messages"`
		} `json:"conversation"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "healthmate-tui", doc.Generator)
	assert.Equal(t, "chat-1", doc.Conversation.ID)
	require.Len(t, doc.Conversation.Messages, 2)
	assert.Equal(t, "ai", doc.Conversation.Messages[1].Type)
	assert.Equal(t, -1, doc.Conversation.Messages[1].Feedback)
}

func TestForFormat(t *testing.T) {
	for _, f := range []string{"md", "Markdown", "", "json"} {
		_, err := ForFormat(f, nil)
		assert.NoError(t, err, f)
	}
	_, err := ForFormat("html", nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.md")

	got, err := ToFile(sampleConversation(), NewMarkdownExporter(nil), path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestDefaultFilename(t *testing.T) {
	name := DefaultFilename(sampleConversation(), NewJSONExporter(nil), fixedNow)
	assert.Equal(t, "healthmate_Headache-_3_days_20250203_140500.json", name)

	assert.Equal(t, "conversation", sanitizeFilename(""))
	assert.Len(t, []rune(sanitizeFilename(strings.Repeat("é", 80))), 50)
}
