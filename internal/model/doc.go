// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the HealthMate client.
//
// These types mirror what the backend sends and receives, plus the in-memory
// conversation state the chat view renders.
//
// # Key Types
//
//   - Message: Single chat message with role, content, sources and feedback
//   - Conversation: Ordered, append-only message log for one chat
//   - SavedChat: Backend-owned snapshot of a conversation
//   - UserProfile: Demographic and medical fields edited by the user
//   - Credentials: Bearer token plus the backend's user summary
//
// # Usage
//
// Build a conversation:
//
//	conv := model.NewConversation()
//	conv.AddMessage(model.NewUserMessage("I have a headache"))
//
// Update feedback in place:
//
//	conv.ApplyFeedback("interaction-1", model.FeedbackUp, "")
package model
