// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/healthmate/healthmate-tui/internal/model"
)

// =============================================================================
// REQUEST AND RESPONSE TYPES
// =============================================================================

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	FullName    string   `json:"fullName"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Age         string   `json:"age"`
	Gender      string   `json:"gender"`
	Allergies   []string `json:"allergies"`
	Medications []string `json:"medications"`
	Conditions  []string `json:"conditions"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Text    string       `json:"text"`
	History []model.Turn `json:"history"`
}

// Hit is one retrieved source document chunk.
type Hit struct {
	ID string `json:"id"`
}

// ChatResponse is the reply to POST /chat.
type ChatResponse struct {
	Message       string `json:"message"`
	Retrieved     []Hit  `json:"retrieved"`
	Status        string `json:"status"`
	InteractionID string `json:"interaction_id"`
}

// FeedbackRequest is the body of POST /llm/feedback.
type FeedbackRequest struct {
	InteractionID   string `json:"interaction_id"`
	Feedback        int    `json:"feedback"`
	FeedbackComment string `json:"feedback_comment,omitempty"`
}

// CreateMessage is a message in a create-chat payload (keyed by "type").
type CreateMessage struct {
	Type      model.Role     `json:"type"`
	Content   string         `json:"content"`
	Timestamp model.WireTime `json:"timestamp"`
}

// CreateChatRequest is the body of POST /chat/save.
type CreateChatRequest struct {
	Messages []CreateMessage `json:"messages"`
	Title    string          `json:"title"`
}

// UpdateMessage is a message in an update-chat payload (keyed by "role").
type UpdateMessage struct {
	Role      model.Role     `json:"role"`
	Content   string         `json:"content"`
	Timestamp model.WireTime `json:"timestamp"`
}

// UpdateChatRequest is the body of PUT /chat/history/{id}.
type UpdateChatRequest struct {
	Title    string          `json:"title"`
	Messages []UpdateMessage `json:"messages"`
}

// EmailRequest is the body of POST /chat/history/{id}/email.
type EmailRequest struct {
	ProviderEmail string `json:"provider_email"`
	EmailSubject  string `json:"email_subject"`
}

type createChatResponse struct {
	ID      string `json:"id"`
	MongoID string `json:"_id"`
}

// =============================================================================
// AUTH
// =============================================================================

// Login exchanges email and password for credentials.
func (c *Client) Login(ctx context.Context, email, password string) (model.Credentials, error) {
	var creds model.Credentials
	err := c.do(ctx, http.MethodPost, "/auth/login", "", LoginRequest{Email: email, Password: password}, &creds)
	return creds, err
}

// Signup creates an account and returns its credentials.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (model.Credentials, error) {
	if req.Allergies == nil {
		req.Allergies = []string{}
	}
	if req.Medications == nil {
		req.Medications = []string{}
	}
	if req.Conditions == nil {
		req.Conditions = []string{}
	}
	var creds model.Credentials
	err := c.do(ctx, http.MethodPost, "/auth/signup", "", req, &creds)
	return creds, err
}

// =============================================================================
// PROFILE
// =============================================================================

// Profile fetches the signed-in user's profile.
func (c *Client) Profile(ctx context.Context, token string) (model.UserProfile, error) {
	var p model.UserProfile
	err := c.do(ctx, http.MethodGet, "/user/profile", token, nil, &p)
	return p, err
}

// UpdateProfile sends a partial profile and returns the fields the backend
// echoed back. Fields it omitted are nil in the result.
func (c *Client) UpdateProfile(ctx context.Context, token string, update model.ProfileUpdate) (model.ProfileUpdate, error) {
	var out model.ProfileUpdate
	err := c.do(ctx, http.MethodPut, "/user/profile", token, update, &out)
	return out, err
}

// =============================================================================
// CHAT AND FEEDBACK
// =============================================================================

// Chat sends one message with prior history. token may be empty.
func (c *Client) Chat(ctx context.Context, token string, req ChatRequest) (ChatResponse, error) {
	if req.History == nil {
		req.History = []model.Turn{}
	}
	var resp ChatResponse
	err := c.do(ctx, http.MethodPost, "/chat", token, req, &resp)
	return resp, err
}

// Feedback records a rating for an interaction. token may be empty.
func (c *Client) Feedback(ctx context.Context, token string, req FeedbackRequest) error {
	return c.do(ctx, http.MethodPost, "/llm/feedback", token, req, nil)
}

// Analytics returns the feedback summary. It needs no credentials.
func (c *Client) Analytics(ctx context.Context) (model.Analytics, error) {
	var a model.Analytics
	err := c.do(ctx, http.MethodGet, "/llm/analytics", "", nil, &a)
	return a, err
}

// =============================================================================
// SAVED CHATS
// =============================================================================

// ListChats returns the user's saved chats in backend order.
func (c *Client) ListChats(ctx context.Context, token string) ([]model.SavedChat, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/chat/history", token, nil, &raw); err != nil {
		return nil, err
	}
	return decodeChatList(raw)
}

// decodeChatList accepts a bare array or an object wrapping it under "chats".
func decodeChatList(raw json.RawMessage) ([]model.SavedChat, error) {
	var chats []model.SavedChat
	if err := json.Unmarshal(raw, &chats); err == nil {
		return chats, nil
	}
	var wrapped struct {
		Chats []model.SavedChat `json:"chats"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Chats, nil
}

// GetChat fetches one saved chat.
func (c *Client) GetChat(ctx context.Context, token, id string) (model.SavedChat, error) {
	var chat model.SavedChat
	err := c.do(ctx, http.MethodGet, chatPath(id, ""), token, nil, &chat)
	if err == nil && chat.ID == "" {
		chat.ID = id
	}
	return chat, err
}

// CreateChat saves a new chat and returns the id the backend assigned.
func (c *Client) CreateChat(ctx context.Context, token string, req CreateChatRequest) (string, error) {
	var out createChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat/save", token, req, &out); err != nil {
		return "", err
	}
	if out.ID != "" {
		return out.ID, nil
	}
	if out.MongoID != "" {
		return out.MongoID, nil
	}
	return "", ErrMissingID
}

// UpdateChat replaces the title and messages of a saved chat.
func (c *Client) UpdateChat(ctx context.Context, token, id string, req UpdateChatRequest) error {
	return c.do(ctx, http.MethodPut, chatPath(id, ""), token, req, nil)
}

// EmailChat asks the backend to send a saved chat to a care provider.
func (c *Client) EmailChat(ctx context.Context, token, id string, req EmailRequest) error {
	return c.do(ctx, http.MethodPost, chatPath(id, "/email"), token, req, nil)
}
