// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apitest provides an in-process fake of the HealthMate backend for
// tests. It implements every endpoint the client uses on a chi router served
// by httptest, records calls, and lets tests script chat replies and faults.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/healthmate/healthmate-tui/internal/api"
	"github.com/healthmate/healthmate-tui/internal/model"
)

// signingKey signs the fake backend's tokens.
var signingKey = []byte("apitest-signing-key")

// ChatHandler scripts the reply to POST /chat. A status other than 200 is
// returned as an error response with detail.
type ChatHandler func(req api.ChatRequest) (resp api.ChatResponse, status int)

type account struct {
	id       string
	password string
	profile  model.UserProfile
	created  time.Time
}

// Backend is a fake HealthMate backend.
type Backend struct {
	Server *httptest.Server

	mu         sync.Mutex
	accounts   map[string]*account // by email
	revoked    map[string]bool
	chats      map[string]*model.SavedChat
	chatOrder  []string
	feedback   []api.FeedbackRequest
	emails     []api.EmailRequest
	chatReqs   []api.ChatRequest
	calls      map[string]int
	nextID     int
	tokenTTL   time.Duration
	chatReply  ChatHandler
	failRoutes map[string]int
	analytics  model.Analytics
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		accounts:   make(map[string]*account),
		revoked:    make(map[string]bool),
		chats:      make(map[string]*model.SavedChat),
		calls:      make(map[string]int),
		failRoutes: make(map[string]int),
		tokenTTL:   time.Hour,
	}
	b.chatReply = defaultChatReply

	r := chi.NewRouter()
	r.Use(b.countCalls)
	r.Post("/auth/login", b.handleLogin)
	r.Post("/auth/signup", b.handleSignup)
	r.With(optionalAuth).Post("/chat", b.handleChat)
	r.With(optionalAuth).Post("/llm/feedback", b.handleFeedback)
	r.Get("/llm/analytics", b.handleAnalytics)

	r.Group(func(r chi.Router) {
		r.Use(b.requireAuth)
		r.Get("/user/profile", b.handleGetProfile)
		r.Put("/user/profile", b.handleUpdateProfile)
		r.Post("/chat/save", b.handleCreateChat)
		r.Get("/chat/history", b.handleListChats)
		r.Get("/chat/history/{id}", b.handleGetChat)
		r.Put("/chat/history/{id}", b.handleUpdateChat)
		r.Post("/chat/history/{id}/email", b.handleEmailChat)
	})

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// Client returns an api.Client pointed at the fake backend.
func (b *Backend) Client() *api.Client {
	return api.New(api.Options{BaseURL: b.Server.URL, Timeout: 5 * time.Second})
}

// =============================================================================
// SCRIPTING
// =============================================================================

// AddUser registers an account and returns a valid token for it.
func (b *Backend) AddUser(email, password string, profile model.UserProfile) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct := b.addAccountLocked(email, password, profile)
	return b.issueLocked(acct, email)
}

// SetTokenTTL changes the lifetime of tokens issued from now on.
// A negative TTL issues already-expired tokens.
func (b *Backend) SetTokenTTL(ttl time.Duration) {
	b.mu.Lock()
	b.tokenTTL = ttl
	b.mu.Unlock()
}

// Revoke makes the backend reject token.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	b.revoked[token] = true
	b.mu.Unlock()
}

// SetChatHandler replaces the scripted chat reply.
func (b *Backend) SetChatHandler(h ChatHandler) {
	b.mu.Lock()
	b.chatReply = h
	b.mu.Unlock()
}

// FailRoute makes every request to "METHOD /pattern" return status.
func (b *Backend) FailRoute(route string, status int) {
	b.mu.Lock()
	b.failRoutes[route] = status
	b.mu.Unlock()
}

// SetAnalytics sets the summary returned by GET /llm/analytics.
func (b *Backend) SetAnalytics(a model.Analytics) {
	b.mu.Lock()
	b.analytics = a
	b.mu.Unlock()
}

// =============================================================================
// INSPECTION
// =============================================================================

// Calls returns how many requests hit "METHOD /pattern" (chi route pattern).
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// TotalCalls returns the number of requests received.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

// Feedback returns the recorded feedback submissions.
func (b *Backend) Feedback() []api.FeedbackRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.FeedbackRequest(nil), b.feedback...)
}

// Emails returns the recorded email requests.
func (b *Backend) Emails() []api.EmailRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.EmailRequest(nil), b.emails...)
}

// ChatRequests returns the recorded chat requests.
func (b *Backend) ChatRequests() []api.ChatRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.ChatRequest(nil), b.chatReqs...)
}

// SavedChat returns a stored chat by id.
func (b *Backend) SavedChat(id string) (model.SavedChat, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.chats[id]
	if !ok {
		return model.SavedChat{}, false
	}
	return *c, true
}

// PutSavedChat stores a chat as if it had been saved earlier.
func (b *Backend) PutSavedChat(chat model.SavedChat) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.chats[chat.ID]; !exists {
		b.chatOrder = append(b.chatOrder, chat.ID)
	}
	c := chat
	b.chats[chat.ID] = &c
}

// Profile returns the stored profile for email.
func (b *Backend) Profile(email string) (model.UserProfile, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts[email]
	if !ok {
		return model.UserProfile{}, false
	}
	return acct.profile.Clone(), true
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

type ctxKey struct{}

func (b *Backend) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		route := r.Method + " " + chi.RouteContext(r.Context()).RoutePattern()
		b.mu.Lock()
		b.calls[route]++
		b.mu.Unlock()
	})
}

func (b *Backend) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := b.authenticate(r)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		r.Header.Set("X-Test-Email", email)
		next.ServeHTTP(w, r)
	})
}

func optionalAuth(next http.Handler) http.Handler {
	return next
}

func (b *Backend) authenticate(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(h, "Bearer ")
	if !found || token == "" {
		return "", false
	}

	b.mu.Lock()
	revoked := b.revoked[token]
	b.mu.Unlock()
	if revoked {
		return "", false
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", false
	}
	return claims.Subject, true
}

func (b *Backend) failure(r *http.Request) (int, bool) {
	route := r.Method + " " + chi.RouteContext(r.Context()).RoutePattern()
	b.mu.Lock()
	defer b.mu.Unlock()
	status, ok := b.failRoutes[route]
	return status, ok
}

// =============================================================================
// HANDLERS
// =============================================================================

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	if status, ok := b.failure(r); ok {
		writeDetail(w, status, "Login unavailable")
		return
	}
	var req api.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.accounts[req.Email]
	if !ok || acct.password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	writeJSON(w, http.StatusOK, b.tokenResponseLocked(acct, req.Email))
}

func (b *Backend) handleSignup(w http.ResponseWriter, r *http.Request) {
	if status, ok := b.failure(r); ok {
		writeDetail(w, status, "Signup unavailable")
		return
	}
	var req api.SignupRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Password) < 6 {
		writeDetail(w, http.StatusUnprocessableEntity, "Password must be at least 6 characters")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[req.Email]; exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	acct := b.addAccountLocked(req.Email, req.Password, model.UserProfile{
		Name:        req.FullName,
		Email:       req.Email,
		Age:         model.WireAge(req.Age),
		Gender:      req.Gender,
		Allergies:   req.Allergies,
		Medications: req.Medications,
		Conditions:  req.Conditions,
	})
	writeJSON(w, http.StatusOK, b.tokenResponseLocked(acct, req.Email))
}

func (b *Backend) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if status, ok := b.failure(r); ok {
		writeDetail(w, status, "Profile unavailable")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	acct := b.accounts[r.Header.Get("X-Test-Email")]
	if acct == nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, acct.profile)
}

func (b *Backend) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if status, ok := b.failure(r); ok {
		writeDetail(w, status, "Profile update failed")
		return
	}
	var update model.ProfileUpdate
	if !decode(w, r, &update) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	acct := b.accounts[r.Header.Get("X-Test-Email")]
	if acct == nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	acct.profile = acct.profile.Merge(update)
	// Echo only the fields that were sent, like a partial update would.
	writeJSON(w, http.StatusOK, update)
}

func (b *Backend) handleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	b.chatReqs = append(b.chatReqs, req)
	handler := b.chatReply
	b.mu.Unlock()

	if status, ok := b.failure(r); ok {
		writeDetail(w, status, "Model unavailable")
		return
	}
	resp, status := handler(req)
	if status != http.StatusOK {
		writeDetail(w, status, "Chat failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if status, ok := b.failure(r); ok {
		writeDetail(w, status, "Feedback failed")
		return
	}
	var req api.FeedbackRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	b.feedback = append(b.feedback, req)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (b *Backend) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if status, ok := b.failure(r); ok {
		writeDetail(w, status, "Analytics unavailable")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.analytics)
}

func (b *Backend) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	if status, ok := b.failure(r); ok {
		writeDetail(w, status, "Save failed")
		return
	}
	var req api.CreateChatRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := fmt.Sprintf("chat-%d", b.nextID)
	chat := &model.SavedChat{
		ID:        id,
		UserEmail: r.Header.Get("X-Test-Email"),
		Title:     req.Title,
		CreatedAt: model.NewWireTime(time.Now().UTC()),
	}
	for _, m := range req.Messages {
		chat.Messages = append(chat.Messages, model.SavedMessage{
			Role:      string(m.Type),
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	b.chats[id] = chat
	b.chatOrder = append(b.chatOrder, id)
	// The backend reports Mongo-style ids.
	writeJSON(w, http.StatusOK, map[string]string{"_id": id, "message": "Chat saved"})
}

func (b *Backend) handleListChats(w http.ResponseWriter, r *http.Request) {
	if status, ok := b.failure(r); ok {
		writeDetail(w, status, "History unavailable")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.SavedChat, 0, len(b.chatOrder))
	for _, id := range b.chatOrder {
		out = append(out, *b.chats[id])
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleGetChat(w http.ResponseWriter, r *http.Request) {
	if status, ok := b.failure(r); ok {
		writeDetail(w, status, "Chat unavailable")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	chat, ok := b.chats[chi.URLParam(r, "id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Chat not found")
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (b *Backend) handleUpdateChat(w http.ResponseWriter, r *http.Request) {
	if status, ok := b.failure(r); ok {
		writeDetail(w, status, "Update failed")
		return
	}
	var req api.UpdateChatRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	chat, ok := b.chats[chi.URLParam(r, "id")]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Chat not found")
		return
	}
	chat.Title = req.Title
	chat.Messages = chat.Messages[:0]
	for _, m := range req.Messages {
		chat.Messages = append(chat.Messages, model.SavedMessage{
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	saved := model.NewWireTime(time.Now().UTC())
	chat.SavedAt = &saved
	writeJSON(w, http.StatusOK, chat)
}

func (b *Backend) handleEmailChat(w http.ResponseWriter, r *http.Request) {
	if status, ok := b.failure(r); ok {
		writeDetail(w, status, "Email failed")
		return
	}
	var req api.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.chats[chi.URLParam(r, "id")]; !ok {
		writeDetail(w, http.StatusNotFound, "Chat not found")
		return
	}
	b.emails = append(b.emails, req)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email sent"})
}

// =============================================================================
// HELPERS
// =============================================================================

func defaultChatReply(req api.ChatRequest) (api.ChatResponse, int) {
	return api.ChatResponse{
		Message:       "Echo: " + req.Text,
		Retrieved:     []api.Hit{{ID: "guides/flu_care.pdf#chunk_3"}},
		Status:        "ok",
		InteractionID: fmt.Sprintf("ix-%d", len(req.History)),
	}, http.StatusOK
}

func (b *Backend) addAccountLocked(email, password string, profile model.UserProfile) *account {
	b.nextID++
	if profile.Email == "" {
		profile.Email = email
	}
	acct := &account{
		id:       fmt.Sprintf("user-%d", b.nextID),
		password: password,
		profile:  profile.Clone(),
		created:  time.Now().UTC(),
	}
	b.accounts[email] = acct
	return acct
}

func (b *Backend) issueLocked(acct *account, email string) string {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ID:        fmt.Sprintf("%s-%d", acct.id, now.UnixNano()),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(b.tokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	return signed
}

func (b *Backend) tokenResponseLocked(acct *account, email string) map[string]any {
	first := acct.profile.Name
	if i := strings.IndexByte(first, ' '); i > 0 {
		first = first[:i]
	}
	return map[string]any{
		"access_token": b.issueLocked(acct, email),
		"token_type":   "bearer",
		"user": map[string]any{
			"id":        acct.id,
			"firstName": first,
			"email":     email,
			"createdAt": acct.created.Format("2006-01-02T15:04:05.999999"),
		},
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
