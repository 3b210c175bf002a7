// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the in-memory message log of one chat.
// Messages are kept in insertion order and only the feedback fields of an
// existing message are ever modified after it is appended.
type Conversation struct {
	// Identity. ID is empty until the conversation is saved to the backend.
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages
	Messages []*Message `json:"messages"`
}

// Turn is the role/content pair sent to the backend as conversational context.
type Turn struct {
	Role    Role   `json:"type"`
	Content string `json:"content"`
}

// NewConversation creates an empty, unbound conversation.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// AddUserMessage creates and appends a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// MessageByInteraction returns the first message carrying interactionID.
func (c *Conversation) MessageByInteraction(interactionID string) *Message {
	if interactionID == "" {
		return nil
	}
	for _, msg := range c.Messages {
		if msg.InteractionID == interactionID {
			return msg
		}
	}
	return nil
}

// ApplyFeedback records a rating on every message with the given interaction
// id and returns how many messages changed.
func (c *Conversation) ApplyFeedback(interactionID string, rating Feedback, comment string) int {
	if interactionID == "" {
		return 0
	}
	n := 0
	for _, msg := range c.Messages {
		if msg.InteractionID != interactionID {
			continue
		}
		msg.Feedback = rating
		msg.FeedbackComment = comment
		n++
	}
	if n > 0 {
		c.UpdatedAt = time.Now()
	}
	return n
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// IsBound reports whether the conversation has a backend id.
func (c *Conversation) IsBound() bool {
	return c.ID != ""
}

// =============================================================================
// VIEWS
// =============================================================================

// History returns the role and content of every user and ai message, in
// order. System notes are local and never sent as context.
func (c *Conversation) History() []Turn {
	turns := make([]Turn, 0, len(c.Messages))
	for _, msg := range c.Messages {
		if msg.Role.Persisted() {
			turns = append(turns, Turn{Role: msg.Role, Content: msg.Content})
		}
	}
	return turns
}

// Persistable returns the messages that are stored in a saved chat.
// System messages are local only.
func (c *Conversation) Persistable() []*Message {
	out := make([]*Message, 0, len(c.Messages))
	for _, msg := range c.Messages {
		if msg.Role.Persisted() {
			out = append(out, msg)
		}
	}
	return out
}

// Snapshot returns a deep copy safe to hand to another goroutine.
func (c *Conversation) Snapshot() *Conversation {
	cp := *c
	cp.Messages = make([]*Message, len(c.Messages))
	for i, msg := range c.Messages {
		cp.Messages[i] = msg.Clone()
	}
	return &cp
}

// DisplayTitle returns the title or a default.
func (c *Conversation) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Conversation"
}

// SuggestedTitle derives a title from the first user message.
func (c *Conversation) SuggestedTitle() string {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return msg.Preview(50)
		}
	}
	return ""
}
