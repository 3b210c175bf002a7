// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/healthmate/healthmate-tui/internal/api"
	"github.com/healthmate/healthmate-tui/internal/logging"
	"github.com/healthmate/healthmate-tui/internal/model"
	"github.com/healthmate/healthmate-tui/internal/session"
)

// Fixed reply texts.
const (
	// FallbackReply is used when the backend answers without a message.
	FallbackReply = "I'm sorry, I couldn't generate a response."

	// ErrorReply is appended when the exchange fails.
	ErrorReply = "Sorry, I'm having trouble connecting right now. Please try again."
)

// Error variables for controller operations.
var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrExchangePending = errors.New("a reply is still pending")
	ErrStaleExchange   = errors.New("conversation changed before the reply arrived")
	ErrNoInteractionID = errors.New("message has no interaction id")
	ErrInvalidRating   = errors.New("rating must be 1 or -1")
	ErrAlreadyRated    = errors.New("message already has feedback")
	ErrNoCommentDraft  = errors.New("no feedback comment is open")
)

// Suggestions are the starter prompts offered on an empty conversation.
var Suggestions = []string{
	"I have a persistent headache",
	"Feeling unusually tired lately",
	"Experiencing stomach discomfort",
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Backend is the subset of the API client the controller uses.
type Backend interface {
	Chat(ctx context.Context, token string, req api.ChatRequest) (api.ChatResponse, error)
	Feedback(ctx context.Context, token string, req api.FeedbackRequest) error
}

// TokenSource supplies the current bearer token ("" when signed out).
type TokenSource interface {
	Token() string
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Exchange is one in-flight send, created by Begin and finished by Complete.
type Exchange struct {
	Text    string
	History []model.Turn
	Token   string
	UserMsg *model.Message

	epoch uint64
}

// Controller owns one conversation's message log, input buffer and pending
// flag. All methods are safe for concurrent use; backend calls are made
// without holding the lock.
type Controller struct {
	backend Backend
	tokens  TokenSource
	logger  *zap.Logger

	mu      sync.Mutex
	conv    *model.Conversation
	input   string
	pending bool
	epoch   uint64
	comment string // interaction id of the open thumbs-down draft
	voted   map[string]struct{}
}

// NewController creates a controller with an empty conversation.
func NewController(backend Backend, tokens TokenSource, logger *zap.Logger) *Controller {
	return &Controller{
		backend: backend,
		tokens:  tokens,
		logger:  logging.OrNop(logger).Named("chat"),
		conv:    model.NewConversation(),
		voted:   make(map[string]struct{}),
	}
}

// =============================================================================
// SENDING
// =============================================================================

// Begin appends the user message and marks the controller pending.
// Blank text returns ErrEmptyMessage and changes nothing.
func (c *Controller) Begin(text string) (Exchange, error) {
	if strings.TrimSpace(text) == "" {
		return Exchange{}, ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending {
		return Exchange{}, ErrExchangePending
	}

	history := c.conv.History()
	msg := c.conv.AddUserMessage(text)
	c.pending = true
	c.input = ""

	return Exchange{
		Text:    text,
		History: history,
		Token:   c.tokens.Token(),
		UserMsg: msg.Clone(),
		epoch:   c.epoch,
	}, nil
}

// Run performs the backend call for ex. It does not touch controller state.
func (c *Controller) Run(ctx context.Context, ex Exchange) (api.ChatResponse, error) {
	start := time.Now()
	resp, err := c.backend.Chat(ctx, ex.Token, api.ChatRequest{Text: ex.Text, History: ex.History})
	if err != nil {
		c.logger.Warn("chat exchange failed",
			zap.Int("history", len(ex.History)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return resp, err
	}
	c.logger.Debug("chat exchange completed",
		zap.String("interaction_id", resp.InteractionID),
		zap.String("status", resp.Status),
		zap.Int("sources", len(resp.Retrieved)),
		zap.Duration("duration", time.Since(start)))
	return resp, nil
}

// Complete appends exactly one ai message for ex and clears the pending
// flag. If the conversation was reset or replaced since Begin, the result is
// dropped and ErrStaleExchange returned.
func (c *Controller) Complete(ex Exchange, resp api.ChatResponse, callErr error) (*model.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ex.epoch != c.epoch {
		return nil, ErrStaleExchange
	}
	c.pending = false

	var msg *model.Message
	if callErr != nil {
		msg = model.NewAIMessage(ErrorReply)
	} else {
		msg = replyMessage(resp)
	}
	c.conv.AddMessage(msg)
	return msg.Clone(), nil
}

// Send runs Begin, Run and Complete. Blank text is a no-op returning nil.
// A failed exchange still appends the fixed error reply; the call error is
// not returned.
func (c *Controller) Send(ctx context.Context, text string) (*model.Message, error) {
	ex, err := c.Begin(text)
	if errors.Is(err, ErrEmptyMessage) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	resp, callErr := c.Run(ctx, ex)
	return c.Complete(ex, resp, callErr)
}

func replyMessage(resp api.ChatResponse) *model.Message {
	content := resp.Message
	if strings.TrimSpace(content) == "" {
		content = FallbackReply
	}
	msg := model.NewAIMessage(content)
	msg.Status = model.ParseStatus(resp.Status)
	msg.Confidence = msg.Status.Confidence()
	msg.InteractionID = resp.InteractionID
	if len(resp.Retrieved) > 0 {
		ids := make([]string, len(resp.Retrieved))
		for i, hit := range resp.Retrieved {
			ids[i] = hit.ID
		}
		msg.Sources = SourceLabels(ids)
	}
	return msg
}

// =============================================================================
// FEEDBACK
// =============================================================================

// SubmitFeedback records a rating on the message matching interactionID and
// sends it to the backend. Each interaction is rated at most once; a later
// vote returns ErrAlreadyRated without a call. A backend failure is logged
// and the local rating stays.
func (c *Controller) SubmitFeedback(ctx context.Context, interactionID string, rating model.Feedback, comment string) error {
	if interactionID == "" {
		return ErrNoInteractionID
	}
	if !rating.Valid() {
		return ErrInvalidRating
	}
	token := c.tokens.Token()
	if token == "" {
		return session.ErrNoToken
	}

	comment = strings.TrimSpace(comment)

	// The vote is claimed and recorded before the call so a second vote on
	// the same interaction is refused while the first is in flight.
	c.mu.Lock()
	if c.ratedLocked(interactionID) {
		c.mu.Unlock()
		return ErrAlreadyRated
	}
	c.voted[interactionID] = struct{}{}
	c.conv.ApplyFeedback(interactionID, rating, comment)
	c.mu.Unlock()

	err := c.backend.Feedback(ctx, token, api.FeedbackRequest{
		InteractionID:   interactionID,
		Feedback:        int(rating),
		FeedbackComment: comment,
	})
	if err != nil {
		c.logger.Warn("feedback submission failed",
			zap.String("interaction_id", interactionID),
			zap.Error(err))
	}
	return nil
}

func (c *Controller) ratedLocked(interactionID string) bool {
	if _, ok := c.voted[interactionID]; ok {
		return true
	}
	msg := c.conv.MessageByInteraction(interactionID)
	return msg != nil && msg.Feedback != model.FeedbackNone
}

// ThumbsUp submits a positive rating immediately.
func (c *Controller) ThumbsUp(ctx context.Context, interactionID string) error {
	return c.SubmitFeedback(ctx, interactionID, model.FeedbackUp, "")
}

// OpenComment starts a thumbs-down draft for interactionID. Nothing is sent
// until ConfirmComment.
func (c *Controller) OpenComment(interactionID string) error {
	if interactionID == "" {
		return ErrNoInteractionID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ratedLocked(interactionID) {
		return ErrAlreadyRated
	}
	c.comment = interactionID
	return nil
}

// CommentTarget returns the interaction id of the open draft.
func (c *Controller) CommentTarget() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.comment, c.comment != ""
}

// ConfirmComment submits the open draft as a thumbs-down with comment.
func (c *Controller) ConfirmComment(ctx context.Context, comment string) error {
	c.mu.Lock()
	id := c.comment
	c.comment = ""
	c.mu.Unlock()
	if id == "" {
		return ErrNoCommentDraft
	}
	return c.SubmitFeedback(ctx, id, model.FeedbackDown, comment)
}

// CancelComment discards the open draft without contacting the backend.
func (c *Controller) CancelComment() {
	c.mu.Lock()
	c.comment = ""
	c.mu.Unlock()
}

// =============================================================================
// STATE
// =============================================================================

// SetInput replaces the input buffer.
func (c *Controller) SetInput(s string) {
	c.mu.Lock()
	c.input = s
	c.mu.Unlock()
}

// Input returns the input buffer.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Pending reports whether a reply is outstanding.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Conversation returns a deep copy of the current conversation.
func (c *Controller) Conversation() *model.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Snapshot()
}

// Messages returns copies of the current messages.
func (c *Controller) Messages() []*model.Message {
	return c.Conversation().Messages
}

// MessageCount returns the number of messages.
func (c *Controller) MessageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.MessageCount()
}

// ID returns the bound saved-chat id, or "".
func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.ID
}

// Title returns the conversation title, or "".
func (c *Controller) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Title
}

// Checkpoint returns a deep copy of the conversation together with its
// epoch, for use with BindIfCurrent.
func (c *Controller) Checkpoint() (*model.Conversation, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Snapshot(), c.epoch
}

// BindIfCurrent records the saved-chat id and title after a successful
// save of the conversation taken at epoch. If the conversation was reset or
// replaced since, nothing changes and ErrStaleExchange is returned. The
// binding is one-way: an already bound conversation keeps its id.
func (c *Controller) BindIfCurrent(epoch uint64, id, title string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return ErrStaleExchange
	}
	if c.conv.ID == "" {
		c.conv.ID = id
	}
	c.conv.Title = title
	return nil
}

// Reset starts a new empty conversation. Outstanding exchanges become stale.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conv = model.NewConversation()
	c.bumpLocked()
}

// Replace swaps in a loaded conversation bound to id. Outstanding exchanges
// become stale.
func (c *Controller) Replace(id, title string, messages []*model.Message) {
	conv := model.NewConversation()
	conv.ID = id
	conv.Title = title
	for _, m := range messages {
		conv.Messages = append(conv.Messages, m.Clone())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conv = conv
	c.bumpLocked()
}

func (c *Controller) bumpLocked() {
	c.epoch++
	c.pending = false
	c.input = ""
	c.comment = ""
}
