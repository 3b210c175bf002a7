// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"
)

// =============================================================================
// SAVED CHAT
// =============================================================================

// SavedMessage is one message inside a saved chat as the backend returns it.
type SavedMessage struct {
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Timestamp WireTime `json:"timestamp"`
}

// SavedChat is a conversation persisted by the backend.
type SavedChat struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id,omitempty"`
	UserEmail string         `json:"user_email,omitempty"`
	Title     string         `json:"title"`
	Messages  []SavedMessage `json:"messages"`
	CreatedAt WireTime       `json:"createdAt"`
	SavedAt   *WireTime      `json:"savedAt,omitempty"`
}

// UnmarshalJSON accepts the id under either "id" or "_id".
func (s *SavedChat) UnmarshalJSON(data []byte) error {
	type plain SavedChat
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = SavedChat(aux.plain)
	if s.ID == "" {
		s.ID = aux.MongoID
	}
	return nil
}

// DisplayTime returns SavedAt when set, otherwise CreatedAt.
func (s SavedChat) DisplayTime() time.Time {
	if s.SavedAt != nil && !s.SavedAt.IsZero() {
		return s.SavedAt.Time
	}
	return s.CreatedAt.Time
}

// LastMessage returns the final message, or nil if there are none.
func (s SavedChat) LastMessage() *SavedMessage {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// =============================================================================
// ANALYTICS
// =============================================================================

// Analytics is the backend's feedback summary.
type Analytics struct {
	TotalInteractions int     `json:"total_interactions"`
	TotalWithFeedback int     `json:"total_with_feedback"`
	TotalThumbsUp     int     `json:"total_thumbs_up"`
	TotalThumbsDown   int     `json:"total_thumbs_down"`
	ThumbsUpRate      float64 `json:"thumbs_up_rate"`
}

// FeedbackRate is the share of interactions that received any feedback.
func (a Analytics) FeedbackRate() float64 {
	if a.TotalInteractions == 0 {
		return 0
	}
	return float64(a.TotalWithFeedback) / float64(a.TotalInteractions)
}
