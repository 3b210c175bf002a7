// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/healthmate/healthmate-tui/internal/api"
	"github.com/healthmate/healthmate-tui/internal/chat"
	"github.com/healthmate/healthmate-tui/internal/forms"
	"github.com/healthmate/healthmate-tui/internal/logging"
	"github.com/healthmate/healthmate-tui/internal/model"
	"github.com/healthmate/healthmate-tui/internal/session"
	"github.com/healthmate/healthmate-tui/internal/util"
)

// PreviewRunes is the length of the list preview before "..." is added.
const PreviewRunes = 60

// EmptyPreview is shown for a saved chat with no messages.
const EmptyPreview = "No messages"

// Error variables for bridge operations.
var (
	ErrEmptyConversation = errors.New("conversation has no messages to save")
	ErrEmptyTitle        = errors.New("title is required")
	ErrNotSaved          = errors.New("conversation has not been saved yet")
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Backend is the subset of the API client the bridge uses.
type Backend interface {
	ListChats(ctx context.Context, token string) ([]model.SavedChat, error)
	GetChat(ctx context.Context, token, id string) (model.SavedChat, error)
	CreateChat(ctx context.Context, token string, req api.CreateChatRequest) (string, error)
	UpdateChat(ctx context.Context, token, id string, req api.UpdateChatRequest) error
	EmailChat(ctx context.Context, token, id string, req api.EmailRequest) error
}

// TokenSource supplies the current bearer token ("" when signed out).
type TokenSource interface {
	Token() string
}

// =============================================================================
// ENTRIES
// =============================================================================

// Entry is one row of the saved-chat list.
type Entry struct {
	ID           string
	Title        string
	Preview      string
	DisplayTime  time.Time
	MessageCount int
}

// NewEntry builds the list row for a saved chat.
func NewEntry(c model.SavedChat) Entry {
	preview := EmptyPreview
	if last := c.LastMessage(); last != nil {
		preview = util.Preview(last.Content, PreviewRunes)
	}
	return Entry{
		ID:           c.ID,
		Title:        c.Title,
		Preview:      preview,
		DisplayTime:  c.DisplayTime(),
		MessageCount: len(c.Messages),
	}
}

// =============================================================================
// BRIDGE
// =============================================================================

// Bridge saves and restores the controller's conversation through the
// backend's saved-chat endpoints.
type Bridge struct {
	backend Backend
	tokens  TokenSource
	ctrl    *chat.Controller
	logger  *zap.Logger
}

// NewBridge creates a bridge for ctrl.
func NewBridge(backend Backend, tokens TokenSource, ctrl *chat.Controller, logger *zap.Logger) *Bridge {
	return &Bridge{
		backend: backend,
		tokens:  tokens,
		ctrl:    ctrl,
		logger:  logging.OrNop(logger).Named("history"),
	}
}

func (b *Bridge) token() (string, error) {
	if t := b.tokens.Token(); t != "" {
		return t, nil
	}
	return "", session.ErrNoToken
}

// Save creates the saved chat on first use and updates it afterwards.
// It returns the bound id.
func (b *Bridge) Save(ctx context.Context, title string) (string, error) {
	conv, epoch := b.ctrl.Checkpoint()
	if conv.IsEmpty() {
		return "", ErrEmptyConversation
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	token, err := b.token()
	if err != nil {
		return "", err
	}

	msgs := conv.Persistable()
	if conv.IsBound() {
		req := api.UpdateChatRequest{Title: title, Messages: make([]api.UpdateMessage, len(msgs))}
		for i, m := range msgs {
			req.Messages[i] = api.UpdateMessage{Role: m.Role, Content: m.Content, Timestamp: model.NewWireTime(m.Timestamp)}
		}
		if err := b.backend.UpdateChat(ctx, token, conv.ID, req); err != nil {
			return "", fmt.Errorf("failed to update chat: %w", err)
		}
		if err := b.bind(epoch, conv.ID, title); err != nil {
			return "", err
		}
		b.logger.Info("chat updated", zap.String("chat_id", conv.ID), zap.Int("messages", len(msgs)))
		return conv.ID, nil
	}

	req := api.CreateChatRequest{Title: title, Messages: make([]api.CreateMessage, len(msgs))}
	for i, m := range msgs {
		req.Messages[i] = api.CreateMessage{Type: m.Role, Content: m.Content, Timestamp: model.NewWireTime(m.Timestamp)}
	}
	id, err := b.backend.CreateChat(ctx, token, req)
	if err != nil {
		return "", fmt.Errorf("failed to save chat: %w", err)
	}
	if err := b.bind(epoch, id, title); err != nil {
		return "", err
	}
	b.logger.Info("chat saved", zap.String("chat_id", id), zap.Int("messages", len(msgs)))
	return id, nil
}

// bind attaches id to the conversation that was saved. A conversation
// started or loaded while the call was in flight is left unbound.
func (b *Bridge) bind(epoch uint64, id, title string) error {
	if err := b.ctrl.BindIfCurrent(epoch, id, title); err != nil {
		b.logger.Warn("conversation changed during save, not binding",
			zap.String("chat_id", id))
		return fmt.Errorf("chat %s was saved but the conversation changed: %w", id, err)
	}
	return nil
}

// List returns the saved chats in backend order.
func (b *Bridge) List(ctx context.Context) ([]Entry, error) {
	token, err := b.token()
	if err != nil {
		return nil, err
	}
	chats, err := b.backend.ListChats(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	entries := make([]Entry, len(chats))
	for i, c := range chats {
		entries[i] = NewEntry(c)
	}
	return entries, nil
}

// Fetch returns a saved chat converted to messages, without touching the
// controller.
func (b *Bridge) Fetch(ctx context.Context, id string) (model.SavedChat, []*model.Message, error) {
	token, err := b.token()
	if err != nil {
		return model.SavedChat{}, nil, err
	}
	saved, err := b.backend.GetChat(ctx, token, id)
	if err != nil {
		return model.SavedChat{}, nil, fmt.Errorf("failed to load chat: %w", err)
	}
	return saved, b.toMessages(saved), nil
}

// Load replaces the controller's conversation with saved chat id.
func (b *Bridge) Load(ctx context.Context, id string) error {
	saved, msgs, err := b.Fetch(ctx, id)
	if err != nil {
		return err
	}
	b.ctrl.Replace(saved.ID, saved.Title, msgs)
	b.logger.Info("chat loaded", zap.String("chat_id", saved.ID), zap.Int("messages", len(msgs)))
	return nil
}

func (b *Bridge) toMessages(saved model.SavedChat) []*model.Message {
	msgs := make([]*model.Message, 0, len(saved.Messages))
	for _, sm := range saved.Messages {
		role, ok := model.RoleFromWire(sm.Role)
		if !ok {
			b.logger.Warn("unknown role in saved chat, treating as user",
				zap.String("chat_id", saved.ID),
				zap.String("role", sm.Role))
		}
		msg := model.NewMessage(role, sm.Content)
		if !sm.Timestamp.IsZero() {
			msg.Timestamp = sm.Timestamp.Time
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// SendToProvider emails the bound saved chat to a care provider. An empty
// subject defaults to the chat title.
func (b *Bridge) SendToProvider(ctx context.Context, providerEmail, subject string) error {
	id := b.ctrl.ID()
	if id == "" {
		return ErrNotSaved
	}
	return b.Email(ctx, id, providerEmail, subject, b.ctrl.Title())
}

// Email sends saved chat id to providerEmail. subject falls back to
// fallbackSubject, then to a generic subject.
func (b *Bridge) Email(ctx context.Context, id, providerEmail, subject, fallbackSubject string) error {
	if errs := forms.Email("provider_email", providerEmail); len(errs) > 0 {
		return errs
	}
	token, err := b.token()
	if err != nil {
		return err
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = strings.TrimSpace(fallbackSubject)
	}
	if subject == "" {
		subject = "HealthMate conversation"
	}
	err = b.backend.EmailChat(ctx, token, id, api.EmailRequest{
		ProviderEmail: strings.TrimSpace(providerEmail),
		EmailSubject:  subject,
	})
	if err != nil {
		return fmt.Errorf("failed to email chat: %w", err)
	}
	b.logger.Info("chat emailed", zap.String("chat_id", id))
	return nil
}
