// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmate/healthmate-tui/internal/api"
	"github.com/healthmate/healthmate-tui/internal/api/apitest"
	"github.com/healthmate/healthmate-tui/internal/forms"
	"github.com/healthmate/healthmate-tui/internal/model"
	"github.com/healthmate/healthmate-tui/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *apitest.Backend, *storage.StateStore) {
	t.Helper()
	b := apitest.NewBackend(t)
	st, err := storage.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewStore(b.Client(), st, nil), b, st
}

func storedToken(t *testing.T, st *storage.StateStore) (string, bool) {
	t.Helper()
	creds, ok, err := st.LoadCredentials(context.Background())
	require.NoError(t, err)
	return creds.Token, ok
}

// =============================================================================
// LOGIN AND SIGNUP
// =============================================================================

func TestLogin_PersistsAndFetchesProfile(t *testing.T) {
	s, b, st := newTestStore(t)
	b.AddUser("ann@example.com", "secret1", model.UserProfile{Name: "Ann Lee", Allergies: []string{"Peanuts"}})

	creds, err := s.Login(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, creds.Token, s.Token())
	assert.False(t, creds.ExpiresAt.IsZero(), "exp read from the JWT")

	tok, ok := storedToken(t, st)
	require.True(t, ok)
	assert.Equal(t, creds.Token, tok)

	p, ok := s.Profile()
	require.True(t, ok)
	assert.Equal(t, "Ann Lee", p.Name)
	assert.Equal(t, "Ann Lee", s.DisplayName())
}

func TestLogin_InvalidCredentialsStoresNothing(t *testing.T) {
	s, b, st := newTestStore(t)
	b.AddUser("ann@example.com", "secret1", model.UserProfile{Name: "Ann"})

	_, err := s.Login(context.Background(), "ann@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, api.IsAuth(err))
	assert.Equal(t, "Invalid email or password", api.DetailOf(err))

	assert.False(t, s.IsAuthenticated())
	_, ok := storedToken(t, st)
	assert.False(t, ok)
}

func TestLogin_ProfileFailureDoesNotFailLogin(t *testing.T) {
	s, b, _ := newTestStore(t)
	b.AddUser("ann@example.com", "secret1", model.UserProfile{Name: "Ann"})
	b.FailRoute("GET /user/profile", http.StatusInternalServerError)

	_, err := s.Login(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
	_, ok := s.Profile()
	assert.False(t, ok)
	assert.Equal(t, "Ann", s.DisplayName(), "falls back to the user summary")
}

func TestSignup_ShortPasswordMakesNoCall(t *testing.T) {
	s, b, _ := newTestStore(t)

	_, err := s.Signup(context.Background(), forms.SignupForm{
		FullName: "Bo",
		Email:    "bo@example.com",
		Password: "12345",
	})
	require.Error(t, err)
	verrs, ok := forms.AsValidation(err)
	require.True(t, ok)
	assert.NotEmpty(t, verrs.For("password"))
	assert.Equal(t, 0, b.TotalCalls())
	assert.False(t, s.IsAuthenticated())
}

func TestSignup_SignsIn(t *testing.T) {
	s, b, _ := newTestStore(t)

	_, err := s.Signup(context.Background(), forms.SignupForm{
		FullName: "Bo Park",
		Email:    "bo@example.com",
		Password: "123456",
		Age:      "30",
		Gender:   "male",
	})
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
	p, ok := s.Profile()
	require.True(t, ok)
	assert.Equal(t, "Bo Park", p.Name)
	assert.Equal(t, 1, b.Calls("POST /auth/signup"))
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_Success(t *testing.T) {
	s, b, st := newTestStore(t)
	token := b.AddUser("c@example.com", "secret1", model.UserProfile{Name: "Cy"})
	require.NoError(t, st.SaveCredentials(context.Background(), model.Credentials{Token: token}))

	ok, err := s.Restore(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	p, err := s.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Cy", p.Name)
	cached, ok := s.Profile()
	require.True(t, ok)
	assert.Equal(t, "Cy", cached.Name)
}

func TestValidate_RejectedTokenIsCleared(t *testing.T) {
	s, b, st := newTestStore(t)
	token := b.AddUser("c@example.com", "secret1", model.UserProfile{Name: "Cy"})
	b.Revoke(token)
	require.NoError(t, st.SaveCredentials(context.Background(), model.Credentials{Token: token}))
	_, err := s.Restore(context.Background())
	require.NoError(t, err)

	_, err = s.Validate(context.Background())
	require.ErrorIs(t, err, ErrInvalidSession)
	assert.True(t, errors.Is(err, api.ErrUnauthorized))
	assert.False(t, s.IsAuthenticated())
	_, ok := storedToken(t, st)
	assert.False(t, ok)
}

func TestValidate_ExpiredTokenSkipsNetwork(t *testing.T) {
	s, b, st := newTestStore(t)
	b.SetTokenTTL(-time.Minute)
	token := b.AddUser("c@example.com", "secret1", model.UserProfile{Name: "Cy"})
	require.NoError(t, st.SaveCredentials(context.Background(), model.Credentials{Token: token}))
	_, err := s.Restore(context.Background())
	require.NoError(t, err)

	_, err = s.Validate(context.Background())
	require.ErrorIs(t, err, ErrInvalidSession)
	assert.Equal(t, 0, b.TotalCalls())
	_, ok := storedToken(t, st)
	assert.False(t, ok)
}

func TestValidate_NetworkErrorFailsClosed(t *testing.T) {
	s, b, st := newTestStore(t)
	token := b.AddUser("c@example.com", "secret1", model.UserProfile{Name: "Cy"})
	require.NoError(t, st.SaveCredentials(context.Background(), model.Credentials{Token: token}))
	_, err := s.Restore(context.Background())
	require.NoError(t, err)
	b.Server.Close()

	_, err = s.Validate(context.Background())
	require.ErrorIs(t, err, ErrInvalidSession)
	assert.True(t, errors.Is(err, api.ErrNetwork))
	assert.False(t, s.IsAuthenticated())
	_, ok := storedToken(t, st)
	assert.False(t, ok)
}

func TestValidate_OpaqueTokenStillChecked(t *testing.T) {
	s, b, st := newTestStore(t)
	require.NoError(t, st.SaveCredentials(context.Background(), model.Credentials{Token: "opaque"}))
	_, err := s.Restore(context.Background())
	require.NoError(t, err)
	assert.True(t, s.ExpiresAt().IsZero())

	_, err = s.Validate(context.Background())
	require.ErrorIs(t, err, ErrInvalidSession)
	assert.Equal(t, 1, b.Calls("GET /user/profile"))
}

func TestValidate_NoToken(t *testing.T) {
	s, b, _ := newTestStore(t)
	_, err := s.Validate(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Equal(t, 0, b.TotalCalls())
}

// =============================================================================
// LOGOUT AND PROFILE CACHE
// =============================================================================

func TestLogout_ClearsEverything(t *testing.T) {
	s, b, st := newTestStore(t)
	b.AddUser("ann@example.com", "secret1", model.UserProfile{Name: "Ann"})
	_, err := s.Login(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, s.Logout(context.Background()))
	assert.False(t, s.IsAuthenticated())
	_, ok := s.Profile()
	assert.False(t, ok)
	_, ok = storedToken(t, st)
	assert.False(t, ok)

	_, err = s.RequireToken()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestMergeProfile_KeepsAbsentFields(t *testing.T) {
	s, _, _ := newTestStore(t)
	s.SetProfile(model.UserProfile{Name: "Ann", Gender: "female", Age: "30"})

	gender := "other"
	merged := s.MergeProfile(model.ProfileUpdate{Gender: &gender})
	assert.Equal(t, "Ann", merged.Name)
	assert.Equal(t, "other", merged.Gender)
	assert.Equal(t, model.WireAge("30"), merged.Age)

	p, _ := s.Profile()
	assert.Equal(t, merged, p)
}

// =============================================================================
// EXPIRY WATCH
// =============================================================================

func TestExpiryWatch(t *testing.T) {
	s, b, _ := newTestStore(t)
	b.SetTokenTTL(time.Minute)
	b.AddUser("ann@example.com", "secret1", model.UserProfile{Name: "Ann"})
	_, err := s.Login(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)

	w := NewExpiryWatch(s, 2*time.Minute)
	now := time.Now()

	msg := w.Check(now)
	warn, ok := msg.(ExpiryWarningMsg)
	require.True(t, ok, "got %T", msg)
	assert.LessOrEqual(t, warn.Remaining, time.Minute)

	assert.Nil(t, w.Check(now), "warned once per token")

	assert.IsType(t, ExpiredMsg{}, w.Check(now.Add(2*time.Minute)))
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, w.Check(now.Add(3*time.Minute)))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "2m", FormatDuration(2*time.Minute))
	assert.Equal(t, "1m 30s", FormatDuration(90*time.Second))
}
