// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the HealthMate client.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleAI     Role = "ai"
	RoleSystem Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAI:
		return "HealthMate"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// Persisted reports whether messages with this role are stored in saved chats.
func (r Role) Persisted() bool {
	return r == RoleUser || r == RoleAI
}

// RoleFromWire maps a backend role string to a client role.
// Anything other than "user" or "ai" collapses to RoleUser; the second
// return value is false when that lossy fallback was taken.
func RoleFromWire(s string) (Role, bool) {
	switch s {
	case "user":
		return RoleUser, true
	case "ai":
		return RoleAI, true
	default:
		return RoleUser, false
	}
}

// =============================================================================
// STATUS AND FEEDBACK
// =============================================================================

// Status is the safety status the backend attaches to an ai reply.
type Status string

const (
	StatusOK      Status = "ok"
	StatusUrgent  Status = "urgent"
	StatusAbstain Status = "abstain"
)

// ParseStatus normalizes a backend status; unknown values become StatusOK.
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusUrgent:
		return StatusUrgent
	case StatusAbstain:
		return StatusAbstain
	default:
		return StatusOK
	}
}

// Confidence returns the display confidence for a status.
// This is a fixed mapping used as a UI affordance, not a model probability.
func (s Status) Confidence() float64 {
	switch s {
	case StatusUrgent:
		return 1.0
	case StatusAbstain:
		return 0.3
	default:
		return 0.8
	}
}

// Feedback is a user rating on an ai message.
type Feedback int

const (
	FeedbackNone Feedback = 0
	FeedbackUp   Feedback = 1
	FeedbackDown Feedback = -1
)

// Valid reports whether f is a rating that can be submitted.
func (f Feedback) Valid() bool {
	return f == FeedbackUp || f == FeedbackDown
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Reply metadata (ai messages only)
	Confidence    float64  `json:"confidence,omitempty"`
	Sources       []string `json:"sources,omitempty"`
	InteractionID string   `json:"interaction_id,omitempty"`
	Status        Status   `json:"status,omitempty"`

	// Feedback state
	Feedback        Feedback `json:"feedback,omitempty"`
	FeedbackComment string   `json:"feedback_comment,omitempty"`
}

// NewMessage creates a new message with a generated, time-ordered ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAIMessage creates a new ai message.
func NewAIMessage(content string) *Message {
	return NewMessage(RoleAI, content)
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// CanRate reports whether feedback can be submitted for this message.
func (m *Message) CanRate() bool {
	return m.Role == RoleAI && m.InteractionID != "" && m.Feedback == FeedbackNone
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	return string(runes[:maxLen]) + "..."
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	c := *m
	if m.Sources != nil {
		c.Sources = append([]string(nil), m.Sources...)
	}
	return &c
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a time-ordered message ID.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
