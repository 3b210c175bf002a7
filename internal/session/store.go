// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/healthmate/healthmate-tui/internal/api"
	"github.com/healthmate/healthmate-tui/internal/forms"
	"github.com/healthmate/healthmate-tui/internal/logging"
	"github.com/healthmate/healthmate-tui/internal/model"
)

// Error variables for session operations.
var (
	// ErrNoToken is returned by operations that need a bearer token when
	// none is held. No network call is made.
	ErrNoToken = errors.New("not signed in")

	// ErrInvalidSession is returned by Validate when the stored token could
	// not be verified. The token has been cleared.
	ErrInvalidSession = errors.New("session is no longer valid")
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Backend is the subset of the API client the store uses.
type Backend interface {
	Login(ctx context.Context, email, password string) (model.Credentials, error)
	Signup(ctx context.Context, req api.SignupRequest) (model.Credentials, error)
	Profile(ctx context.Context, token string) (model.UserProfile, error)
}

// CredentialStore persists the token and user summary together.
type CredentialStore interface {
	SaveCredentials(ctx context.Context, creds model.Credentials) error
	LoadCredentials(ctx context.Context) (model.Credentials, bool, error)
	ClearCredentials(ctx context.Context) error
}

// =============================================================================
// STORE
// =============================================================================

// Store holds the bearer token and cached profile for the process.
// All methods are safe for concurrent use.
type Store struct {
	backend Backend
	creds   CredentialStore
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.RWMutex
	current model.Credentials
	profile *model.UserProfile
}

// NewStore creates an empty store. Call Restore to pick up saved credentials.
func NewStore(backend Backend, creds CredentialStore, logger *zap.Logger) *Store {
	return &Store{
		backend: backend,
		creds:   creds,
		logger:  logging.OrNop(logger).Named("session"),
		now:     time.Now,
	}
}

// Restore loads persisted credentials into memory without contacting the
// backend. It reports whether a token was found.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	creds, ok, err := s.creds.LoadCredentials(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load credentials: %w", err)
	}
	if !ok {
		return false, nil
	}
	creds.ExpiresAt = tokenExpiry(creds.Token)

	s.mu.Lock()
	s.current = creds
	s.profile = nil
	s.mu.Unlock()
	return true, nil
}

// Login authenticates, persists the credentials and caches the profile.
func (s *Store) Login(ctx context.Context, email, password string) (model.Credentials, error) {
	creds, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return model.Credentials{}, err
	}
	return s.establish(ctx, creds)
}

// Signup validates the form, creates the account and signs in.
// A form that fails validation never reaches the backend.
func (s *Store) Signup(ctx context.Context, form forms.SignupForm) (model.Credentials, error) {
	if errs := form.Validate(); len(errs) > 0 {
		return model.Credentials{}, errs
	}
	creds, err := s.backend.Signup(ctx, api.SignupRequest{
		FullName:    form.FullName,
		Email:       form.Email,
		Password:    form.Password,
		Age:         form.Age,
		Gender:      form.Gender,
		Allergies:   form.Allergies,
		Medications: form.Medications,
		Conditions:  form.Conditions,
	})
	if err != nil {
		return model.Credentials{}, err
	}
	return s.establish(ctx, creds)
}

// establish persists creds and fetches the profile. A profile failure is
// logged and does not fail the sign-in.
func (s *Store) establish(ctx context.Context, creds model.Credentials) (model.Credentials, error) {
	if creds.Token == "" {
		return model.Credentials{}, errors.New("backend returned no access token")
	}
	creds.ExpiresAt = tokenExpiry(creds.Token)

	if err := s.creds.SaveCredentials(ctx, creds); err != nil {
		return model.Credentials{}, fmt.Errorf("failed to save credentials: %w", err)
	}

	s.mu.Lock()
	s.current = creds
	s.profile = nil
	s.mu.Unlock()

	s.logger.Info("signed in",
		zap.String("user_id", creds.User.ID),
		zap.String("email", logging.RedactEmail(creds.User.Email)))

	profile, err := s.backend.Profile(ctx, creds.Token)
	if err != nil {
		s.logger.Warn("profile fetch after sign-in failed", zap.Error(err))
		return creds, nil
	}
	s.SetProfile(profile)
	return creds, nil
}

// Validate verifies the held token against the backend profile endpoint.
// Any failure clears the token and returns ErrInvalidSession. A JWT whose
// exp has passed is rejected without a network call.
func (s *Store) Validate(ctx context.Context) (model.UserProfile, error) {
	s.mu.RLock()
	creds := s.current
	s.mu.RUnlock()

	if creds.Token == "" {
		return model.UserProfile{}, ErrNoToken
	}

	if creds.Expired(s.now()) {
		s.logger.Info("stored token expired", zap.Time("expires_at", creds.ExpiresAt))
		return model.UserProfile{}, s.invalidate(ctx, creds.Token, nil)
	}

	profile, err := s.backend.Profile(ctx, creds.Token)
	if err != nil {
		return model.UserProfile{}, s.invalidate(ctx, creds.Token, err)
	}

	s.mu.Lock()
	if s.current.Token == creds.Token {
		p := profile.Clone()
		s.profile = &p
	}
	s.mu.Unlock()
	return profile, nil
}

// invalidate clears the session if it still holds token.
func (s *Store) invalidate(ctx context.Context, token string, cause error) error {
	if cause != nil {
		s.logger.Warn("session validation failed", zap.Error(cause))
	}

	s.mu.Lock()
	stale := s.current.Token == token
	if stale {
		s.current = model.Credentials{}
		s.profile = nil
	}
	s.mu.Unlock()

	if stale {
		if err := s.creds.ClearCredentials(ctx); err != nil {
			s.logger.Error("failed to clear credentials", zap.Error(err))
		}
	}
	if cause != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSession, cause)
	}
	return ErrInvalidSession
}

// Logout forgets the token and profile in memory and on disk.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.current = model.Credentials{}
	s.profile = nil
	s.mu.Unlock()

	if err := s.creds.ClearCredentials(ctx); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	s.logger.Info("signed out")
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Token returns the bearer token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// RequireToken returns the bearer token or ErrNoToken.
func (s *Store) RequireToken() (string, error) {
	if token := s.Token(); token != "" {
		return token, nil
	}
	return "", ErrNoToken
}

// IsAuthenticated reports whether a token is held.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// User returns the user summary returned at sign-in.
func (s *Store) User() model.UserSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.User
}

// ExpiresAt returns the token expiry, zero when unknown.
func (s *Store) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.ExpiresAt
}

// Profile returns a copy of the cached profile. ok is false when no profile
// has been fetched.
func (s *Store) Profile() (model.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return model.UserProfile{}, false
	}
	return s.profile.Clone(), true
}

// SetProfile replaces the cached profile.
func (s *Store) SetProfile(p model.UserProfile) {
	p = p.Clone()
	s.mu.Lock()
	s.profile = &p
	s.mu.Unlock()
}

// MergeProfile applies a partial update to the cached profile and returns
// the result. Fields absent from u keep their cached values.
func (s *Store) MergeProfile(u model.ProfileUpdate) model.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	var base model.UserProfile
	if s.profile != nil {
		base = *s.profile
	}
	merged := base.Merge(u)
	s.profile = &merged
	return merged.Clone()
}

// DisplayName returns the best available name for greetings.
func (s *Store) DisplayName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile != nil && s.profile.Name != "" {
		return s.profile.Name
	}
	if s.current.User.FirstName != "" {
		return s.current.User.FirstName
	}
	return s.current.User.Email
}

// =============================================================================
// TOKEN INSPECTION
// =============================================================================

// tokenExpiry reads the exp claim of a JWT without verifying it. The
// signature is the backend's concern; the client only uses exp to fail
// closed early. Opaque tokens yield the zero time.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
