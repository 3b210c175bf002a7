// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestStatus_Confidence(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"urgent", 1.0},
		{"URGENT", 1.0},
		{"abstain", 0.3},
		{"ok", 0.8},
		{"", 0.8},
		{"something-new", 0.8},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseStatus(tc.in).Confidence())
		})
	}
}

func TestRoleFromWire(t *testing.T) {
	r, ok := RoleFromWire("user")
	assert.Equal(t, RoleUser, r)
	assert.True(t, ok)

	r, ok = RoleFromWire("ai")
	assert.Equal(t, RoleAI, r)
	assert.True(t, ok)

	r, ok = RoleFromWire("system")
	assert.Equal(t, RoleUser, r)
	assert.False(t, ok)
}

func TestMessage_IDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		m := NewUserMessage("hi")
		require.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
	}
}

func TestMessage_CanRate(t *testing.T) {
	m := NewAIMessage("reply")
	assert.False(t, m.CanRate(), "no interaction id")

	m.InteractionID = "x"
	assert.True(t, m.CanRate())

	m.Feedback = FeedbackUp
	assert.False(t, m.CanRate(), "already rated")

	u := NewUserMessage("q")
	u.InteractionID = "x"
	assert.False(t, u.CanRate(), "user messages cannot be rated")
}

func TestMessage_PreviewUnicode(t *testing.T) {
	m := NewUserMessage("héllo wörld")
	assert.Equal(t, "héllo...", m.Preview(5))
	assert.Equal(t, "héllo wörld", m.Preview(50))
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_ApplyFeedbackOnlyTouchesMatch(t *testing.T) {
	conv := NewConversation()
	a := NewAIMessage("one")
	a.InteractionID = "A"
	b := NewAIMessage("two")
	b.InteractionID = "B"
	conv.AddUserMessage("q")
	conv.AddMessage(a)
	conv.AddMessage(b)

	n := conv.ApplyFeedback("A", FeedbackUp, "")
	assert.Equal(t, 1, n)
	assert.Equal(t, FeedbackUp, a.Feedback)
	assert.Equal(t, FeedbackNone, b.Feedback)

	assert.Equal(t, 0, conv.ApplyFeedback("", FeedbackUp, ""))
	assert.Equal(t, 0, conv.ApplyFeedback("missing", FeedbackUp, ""))
}

func TestConversation_PersistableSkipsSystem(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("q")
	conv.AddMessage(NewSystemMessage("note"))
	conv.AddMessage(NewAIMessage("a"))

	got := conv.Persistable()
	require.Len(t, got, 2)
	assert.Equal(t, RoleUser, got[0].Role)
	assert.Equal(t, RoleAI, got[1].Role)
}

func TestConversation_SnapshotIsDeep(t *testing.T) {
	conv := NewConversation()
	m := NewAIMessage("a")
	m.Sources = []string{"Guides"}
	conv.AddMessage(m)

	snap := conv.Snapshot()
	snap.Messages[0].Content = "changed"
	snap.Messages[0].Sources[0] = "changed"

	assert.Equal(t, "a", m.Content)
	assert.Equal(t, "Guides", m.Sources[0])
}

// =============================================================================
// WIRE FORMAT TESTS
// =============================================================================

func TestSavedChat_AcceptsMongoID(t *testing.T) {
	var sc SavedChat
	err := json.Unmarshal([]byte(`{"_id":"abc","title":"T","messages":[],"createdAt":"2024-05-01T10:00:00.123456"}`), &sc)
	require.NoError(t, err)
	assert.Equal(t, "abc", sc.ID)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC), sc.DisplayTime())
}

func TestSavedChat_PrefersSavedAt(t *testing.T) {
	var sc SavedChat
	err := json.Unmarshal([]byte(`{"id":"x","createdAt":"2024-05-01T10:00:00Z","savedAt":"2024-06-01T10:00:00Z"}`), &sc)
	require.NoError(t, err)
	assert.Equal(t, "x", sc.ID)
	assert.Equal(t, 6, int(sc.DisplayTime().Month()))
}

func TestWireAge_StringOrNumber(t *testing.T) {
	var p UserProfile
	require.NoError(t, json.Unmarshal([]byte(`{"fullName":"A","age":42}`), &p))
	n, ok := p.Age.Int()
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	require.NoError(t, json.Unmarshal([]byte(`{"fullName":"A","age":"7"}`), &p))
	n, ok = p.Age.Int()
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	require.NoError(t, json.Unmarshal([]byte(`{"fullName":"A","age":null}`), &p))
	_, ok = p.Age.Int()
	assert.False(t, ok)
}

func TestUserProfile_MergeKeepsAbsentFields(t *testing.T) {
	base := UserProfile{
		Name:      "Ann",
		Age:       "30",
		Gender:    "female",
		Allergies: []string{"Peanuts"},
	}
	name := "Anne"
	merged := base.Merge(ProfileUpdate{Name: &name})

	assert.Equal(t, "Anne", merged.Name)
	assert.Equal(t, WireAge("30"), merged.Age)
	assert.Equal(t, "female", merged.Gender)
	assert.Equal(t, []string{"Peanuts"}, merged.Allergies)

	merged.Allergies[0] = "changed"
	assert.Equal(t, "Peanuts", base.Allergies[0], "merge must not alias")
}

func TestAnalytics_FeedbackRate(t *testing.T) {
	assert.Equal(t, 0.0, Analytics{}.FeedbackRate())
	assert.InDelta(t, 0.25, Analytics{TotalInteractions: 8, TotalWithFeedback: 2}.FeedbackRate(), 1e-9)
}

func TestCredentials_Expired(t *testing.T) {
	now := time.Now()
	assert.False(t, Credentials{}.Expired(now))
	assert.True(t, Credentials{ExpiresAt: now.Add(-time.Minute)}.Expired(now))
	assert.False(t, Credentials{ExpiresAt: now.Add(time.Minute)}.Expired(now))
}

func TestUserProfile_LegacyNameField(t *testing.T) {
	var p UserProfile
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Old Style","allergies":["Dust"]}`), &p))
	assert.Equal(t, "Old Style", p.Name)
	assert.Equal(t, []string{"Dust"}, p.Allergies)
}
