// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmate/healthmate-tui/internal/api/apitest"
	"github.com/healthmate/healthmate-tui/internal/chat"
	"github.com/healthmate/healthmate-tui/internal/config"
	"github.com/healthmate/healthmate-tui/internal/history"
	"github.com/healthmate/healthmate-tui/internal/model"
	"github.com/healthmate/healthmate-tui/internal/nav"
	"github.com/healthmate/healthmate-tui/internal/profile"
	"github.com/healthmate/healthmate-tui/internal/session"
	"github.com/healthmate/healthmate-tui/internal/storage"
	"github.com/healthmate/healthmate-tui/internal/ui/styles"
)

// =============================================================================
// HARNESS
// =============================================================================

const (
	testEmail    = "ann@example.com"
	testPassword = "secret1"

	// drainIdle bounds how long drain waits for the next message. The fake
	// backend answers well within it.
	drainIdle = 200 * time.Millisecond
)

type harness struct {
	t       *testing.T
	m       Model
	backend *apitest.Backend
	store   *storage.StateStore
	sess    *session.Store
	ctrl    *chat.Controller
}

// newHarness builds the model over a fake backend. When signedIn is true
// the stored token is restored and validated, landing on the chat screen.
func newHarness(t *testing.T, signedIn bool) *harness {
	t.Helper()
	b := apitest.NewBackend(t)
	b.AddUser(testEmail, testPassword, model.UserProfile{Name: "Ann Lee", Email: testEmail, Age: "34", Gender: "female"})

	st, err := storage.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	client := b.Client()
	ctx := context.Background()
	if signedIn {
		seed := session.NewStore(client, st, nil)
		_, err := seed.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)
	}

	sess := session.NewStore(client, st, nil)
	_, err = sess.Restore(ctx)
	require.NoError(t, err)

	ctrl := chat.NewController(client, sess, nil)
	cfg := config.Default()
	cfg.UI.RenderMarkdown = false
	cfg.UI.ScrollDebounceMs = 1

	h := &harness{t: t, backend: b, store: st, sess: sess, ctrl: ctrl}
	h.m = New(ctx, Deps{
		Config:    cfg,
		Session:   sess,
		Chat:      ctrl,
		History:   history.NewBridge(client, sess, ctrl, nil),
		Profile:   profile.NewSubmitter(client, sess, nil),
		Analytics: client,
		Theme:     styles.NewTheme(styles.ModeDark),
	})
	t.Cleanup(h.m.Close)
	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	if signedIn {
		h.drain(h.m.validateCmd())
		require.Equal(t, nav.ScreenChat, h.m.Screen())
	}
	return h
}

// send feeds msg to the model and runs the resulting commands.
func (h *harness) send(msg tea.Msg) {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	h.drain(cmd)
}

// drain runs cmd and feeds back backend results. Timer messages are
// dropped so ticks never re-arm; commands that stay quiet for the idle
// window (cursor blink, toast expiry) are abandoned.
func (h *harness) drain(cmd tea.Cmd) {
	h.t.Helper()
	results := make(chan tea.Msg, 64)
	pending := 0
	launch := func(c tea.Cmd) {
		if c == nil {
			return
		}
		pending++
		go func() { results <- c() }()
	}
	launch(cmd)

	var got []tea.Msg
	for pending > 0 {
		select {
		case msg := <-results:
			pending--
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, c := range batch {
					launch(c)
				}
				continue
			}
			if _, ok := msg.(resultMsg); ok {
				got = append(got, msg)
			}
		case <-time.After(drainIdle):
			pending = 0
		}
	}
	for _, msg := range got {
		h.send(msg)
	}
}

func (h *harness) key(t tea.KeyType) {
	h.t.Helper()
	h.send(tea.KeyMsg{Type: t})
}

// typeText delivers s as one runes message, the way a paste arrives.
func (h *harness) typeText(s string) {
	h.t.Helper()
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) chatWith(text string) {
	h.t.Helper()
	h.typeText(text)
	h.key(tea.KeyEnter)
}

// =============================================================================
// STARTUP
// =============================================================================

func TestStartsOnSplashWithoutToken(t *testing.T) {
	h := newHarness(t, false)
	assert.Equal(t, nav.ScreenSplash, h.m.Screen())
	assert.Contains(t, h.m.View(), "Create account")

	h.key(tea.KeyEnter)
	assert.Equal(t, nav.ScreenLogin, h.m.Screen())
	assert.Contains(t, h.m.View(), "Sign in to HealthMate")
}

func TestRestoredTokenIsValidated(t *testing.T) {
	h := newHarness(t, true)
	assert.Equal(t, 2, h.backend.Calls("GET /user/profile"), "once at login, once at startup")
	assert.Contains(t, h.m.View(), "Ann Lee")
}

func TestRevokedTokenReturnsToSplash(t *testing.T) {
	b := apitest.NewBackend(t)
	token := b.AddUser(testEmail, testPassword, model.UserProfile{Name: "Ann"})
	st, err := storage.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.SaveCredentials(context.Background(), model.Credentials{Token: token}))
	b.Revoke(token)

	client := b.Client()
	sess := session.NewStore(client, st, nil)
	ok, err := sess.Restore(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	ctrl := chat.NewController(client, sess, nil)

	h := &harness{t: t, backend: b, store: st, sess: sess, ctrl: ctrl}
	h.m = New(context.Background(), Deps{
		Session:   sess,
		Chat:      ctrl,
		History:   history.NewBridge(client, sess, ctrl, nil),
		Profile:   profile.NewSubmitter(client, sess, nil),
		Analytics: client,
		Theme:     styles.NewTheme(styles.ModeDark),
	})
	t.Cleanup(h.m.Close)
	require.Equal(t, nav.ScreenLoading, h.m.Screen())

	h.drain(h.m.validateCmd())
	assert.Equal(t, nav.ScreenSplash, h.m.Screen())
	_, stored, err := st.LoadCredentials(context.Background())
	require.NoError(t, err)
	assert.False(t, stored, "invalid token cleared")
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

func TestLoginFlow(t *testing.T) {
	h := newHarness(t, false)
	h.key(tea.KeyEnter)
	h.typeText(testEmail)
	h.key(tea.KeyTab)
	h.typeText(testPassword)
	h.key(tea.KeyEnter)

	require.Equal(t, nav.ScreenChat, h.m.Screen())
	assert.True(t, h.sess.IsAuthenticated())
	assert.Contains(t, h.m.View(), "Hello, Ann Lee!")
}

func TestLoginInvalidFormMakesNoCall(t *testing.T) {
	h := newHarness(t, false)
	h.key(tea.KeyEnter)
	h.typeText("not-an-email")
	h.key(tea.KeyEnter)

	assert.Equal(t, nav.ScreenLogin, h.m.Screen())
	assert.Equal(t, 0, h.backend.Calls("POST /auth/login"))
	view := h.m.View()
	assert.Contains(t, view, "Enter a valid email address")
	assert.Contains(t, view, "Password is required")
}

func TestLoginWrongPasswordStaysOnLogin(t *testing.T) {
	h := newHarness(t, false)
	h.key(tea.KeyEnter)
	h.typeText(testEmail)
	h.key(tea.KeyTab)
	h.typeText("wrong-password")
	h.key(tea.KeyEnter)

	assert.Equal(t, nav.ScreenLogin, h.m.Screen())
	assert.Equal(t, 1, h.backend.Calls("POST /auth/login"))
	assert.False(t, h.sess.IsAuthenticated())
	assert.Contains(t, h.m.View(), "Invalid email or password")
}

func TestSignupOnboardingSavesLists(t *testing.T) {
	h := newHarness(t, false)
	h.key(tea.KeyDown)
	h.key(tea.KeyEnter)
	require.Equal(t, nav.ScreenSignup, h.m.Screen())

	h.typeText("Bob Stone")
	h.key(tea.KeyTab)
	h.typeText("bob@example.com")
	h.key(tea.KeyTab)
	h.typeText("hunter22")
	h.key(tea.KeyEnter)
	require.Equal(t, nav.ScreenOnboarding, h.m.Screen())

	h.chatWith("Peanuts")
	h.key(tea.KeyEnter) // medications
	h.chatWith("Metformin")
	h.key(tea.KeyEnter) // conditions
	h.key(tea.KeyEnter) // finish

	require.Equal(t, nav.ScreenChat, h.m.Screen())
	p, ok := h.backend.Profile("bob@example.com")
	require.True(t, ok)
	assert.Equal(t, []string{"Peanuts"}, p.Allergies)
	assert.Equal(t, []string{"Metformin"}, p.Medications)
}

func TestOnboardingSkipSendsNothing(t *testing.T) {
	h := newHarness(t, false)
	h.key(tea.KeyDown)
	h.key(tea.KeyEnter)
	h.typeText("Bob Stone")
	h.key(tea.KeyTab)
	h.typeText("bob@example.com")
	h.key(tea.KeyTab)
	h.typeText("hunter22")
	h.key(tea.KeyEnter)
	require.Equal(t, nav.ScreenOnboarding, h.m.Screen())

	h.key(tea.KeyCtrlK)
	assert.Equal(t, nav.ScreenChat, h.m.Screen())
	assert.Equal(t, 0, h.backend.Calls("PUT /user/profile"))
}

// =============================================================================
// CHAT
// =============================================================================

func TestChatSendAndReply(t *testing.T) {
	h := newHarness(t, true)
	h.chatWith("I have a headache")

	msgs := h.ctrl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "Echo: I have a headache", msgs[1].Content)
	assert.False(t, h.ctrl.Pending())
	assert.Empty(t, h.m.chat.input.Value(), "input cleared after send")
	assert.Contains(t, h.m.View(), "Echo: I have a headache")
}

func TestChatBlankInputIgnored(t *testing.T) {
	h := newHarness(t, true)
	h.chatWith("   ")
	assert.Equal(t, 0, h.ctrl.MessageCount())
	assert.Equal(t, 0, h.backend.Calls("POST /chat"))
}

func TestChatSecondSendWhilePendingRefused(t *testing.T) {
	h := newHarness(t, true)
	first, cmd1 := h.m.send("first")
	h.m = first.(Model)
	second, _ := h.m.send("second")
	h.m = second.(Model)

	assert.Equal(t, 1, h.ctrl.MessageCount())
	h.drain(cmd1)
	assert.Equal(t, 2, h.ctrl.MessageCount())
}

func TestNewChatDropsPendingReply(t *testing.T) {
	h := newHarness(t, true)
	next, cmd := h.m.send("hello")
	h.m = next.(Model)
	h.key(tea.KeyCtrlN)
	h.drain(cmd)

	assert.Equal(t, 0, h.ctrl.MessageCount(), "stale reply dropped")
	assert.False(t, h.ctrl.Pending())
}

func TestChatFailureAppendsErrorReply(t *testing.T) {
	h := newHarness(t, true)
	h.backend.FailRoute("POST /chat", http.StatusInternalServerError)
	h.chatWith("hello")

	msgs := h.ctrl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.ErrorReply, msgs[1].Content)
	assert.NotEmpty(t, h.m.lastErr)
}

func TestThumbsUpSendsFeedback(t *testing.T) {
	h := newHarness(t, true)
	h.chatWith("hello")
	h.key(tea.KeyTab)
	h.typeText("+")

	fb := h.backend.Feedback()
	require.Len(t, fb, 1)
	assert.Equal(t, 1, fb[0].Feedback)
	assert.Equal(t, model.FeedbackUp, h.ctrl.Messages()[1].Feedback)

	h.typeText("+")
	assert.Len(t, h.backend.Feedback(), 1, "already rated")
}

func TestThumbsDownWithComment(t *testing.T) {
	h := newHarness(t, true)
	h.chatWith("hello")
	h.key(tea.KeyTab)
	h.typeText("-")
	require.NotNil(t, h.m.prompt)
	assert.Empty(t, h.backend.Feedback(), "nothing sent until confirmed")

	h.typeText("too vague")
	h.key(tea.KeyEnter)

	fb := h.backend.Feedback()
	require.Len(t, fb, 1)
	assert.Equal(t, -1, fb[0].Feedback)
	assert.Equal(t, "too vague", fb[0].FeedbackComment)
	assert.Nil(t, h.m.prompt)
}

func TestThumbsDownCancelSendsNothing(t *testing.T) {
	h := newHarness(t, true)
	h.chatWith("hello")
	h.key(tea.KeyTab)
	h.typeText("-")
	h.key(tea.KeyEsc)

	assert.Nil(t, h.m.prompt)
	assert.Empty(t, h.backend.Feedback())
	_, open := h.ctrl.CommentTarget()
	assert.False(t, open)
}

func TestSuggestionStartsConversation(t *testing.T) {
	h := newHarness(t, true)
	h.key(tea.KeyTab)
	h.key(tea.KeyDown)
	h.key(tea.KeyEnter)

	msgs := h.ctrl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.Suggestions[1], msgs[0].Content)
}

// =============================================================================
// SAVE AND EMAIL
// =============================================================================

func TestSaveThenEmail(t *testing.T) {
	h := newHarness(t, true)
	h.chatWith("My knee hurts")

	h.key(tea.KeyCtrlO)
	assert.Nil(t, h.m.prompt, "email needs a saved chat")

	h.key(tea.KeyCtrlS)
	require.NotNil(t, h.m.prompt)
	assert.Equal(t, "My knee hurts", h.m.prompt.input.Value(), "title suggested from first message")
	h.key(tea.KeyEnter)

	assert.Equal(t, 1, h.backend.Calls("POST /chat/save"))
	require.NotEmpty(t, h.ctrl.ID())

	h.key(tea.KeyCtrlO)
	require.NotNil(t, h.m.prompt)
	h.typeText("doctor")
	h.key(tea.KeyEnter)
	require.NotNil(t, h.m.prompt, "invalid address keeps the prompt open")
	assert.Equal(t, "Enter a valid email address", h.m.prompt.err)

	h.typeText("@clinic.example")
	h.key(tea.KeyEnter)
	emails := h.backend.Emails()
	require.Len(t, emails, 1)
	assert.Equal(t, "doctor@clinic.example", emails[0].ProviderEmail)
	assert.Equal(t, "My knee hurts", emails[0].EmailSubject)
}

func TestSaveEmptyConversationRefused(t *testing.T) {
	h := newHarness(t, true)
	h.key(tea.KeyCtrlS)
	assert.Nil(t, h.m.prompt)
	assert.Equal(t, 0, h.backend.Calls("POST /chat/save"))
}

// =============================================================================
// OTHER SCREENS
// =============================================================================

func TestHistoryLoadsSavedChat(t *testing.T) {
	h := newHarness(t, true)
	ts := model.NewWireTime(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	h.backend.PutSavedChat(model.SavedChat{
		ID:    "c1",
		Title: "Sore throat",
		Messages: []model.SavedMessage{
			{Role: "user", Content: "My throat hurts", Timestamp: ts},
			{Role: "ai", Content: "Try warm fluids.", Timestamp: ts},
		},
		CreatedAt: ts,
	})

	h.key(tea.KeyCtrlR)
	require.Equal(t, nav.ScreenHistory, h.m.Screen())
	require.Len(t, h.m.history.entries, 1)
	assert.Contains(t, h.m.View(), "Sore throat")

	h.key(tea.KeyEnter)
	require.Equal(t, nav.ScreenChat, h.m.Screen())
	assert.Equal(t, "c1", h.ctrl.ID())
	assert.Equal(t, 2, h.ctrl.MessageCount())
	assert.Contains(t, h.m.View(), "Try warm fluids.")
}

func TestHistoryEmailSelectedChat(t *testing.T) {
	h := newHarness(t, true)
	h.backend.PutSavedChat(model.SavedChat{ID: "c9", Title: "Rash"})

	h.key(tea.KeyCtrlR)
	h.key(tea.KeyCtrlO)
	require.NotNil(t, h.m.prompt)
	h.typeText("gp@clinic.example")
	h.key(tea.KeyEnter)

	emails := h.backend.Emails()
	require.Len(t, emails, 1)
	assert.Equal(t, "Rash", emails[0].EmailSubject)
	assert.Equal(t, nav.ScreenHistory, h.m.Screen())
}

func TestProfileValidatesBeforeSaving(t *testing.T) {
	h := newHarness(t, true)
	h.key(tea.KeyCtrlP)
	require.Equal(t, nav.ScreenProfile, h.m.Screen())
	assert.Equal(t, "Ann Lee", h.m.profile.fields[0].input.Value())

	h.key(tea.KeyTab) // age
	h.key(tea.KeyBackspace)
	h.key(tea.KeyBackspace)
	h.typeText("200")
	h.key(tea.KeyCtrlS)
	assert.Equal(t, 0, h.backend.Calls("PUT /user/profile"))
	assert.NotEmpty(t, h.m.profile.errs.For("age"))

	h.key(tea.KeyBackspace)
	h.key(tea.KeyBackspace)
	h.key(tea.KeyBackspace)
	h.typeText("35")
	h.key(tea.KeyCtrlS)
	assert.Equal(t, 1, h.backend.Calls("PUT /user/profile"))
	p, ok := h.sess.Profile()
	require.True(t, ok)
	assert.Equal(t, model.WireAge("35"), p.Age)
}

func TestProfileListAddAndRemove(t *testing.T) {
	h := newHarness(t, true)
	h.key(tea.KeyCtrlP)
	for i := 0; i < 3; i++ {
		h.key(tea.KeyTab)
	}
	h.chatWith("Latex")
	h.chatWith("Pollen")
	assert.Equal(t, []string{"Latex", "Pollen"}, h.m.profile.editor.Items(profile.Allergies))

	h.key(tea.KeyBackspace)
	assert.Equal(t, []string{"Latex"}, h.m.profile.editor.Items(profile.Allergies))
	assert.True(t, h.m.profile.editor.Dirty())
}

func TestAnalyticsScreen(t *testing.T) {
	h := newHarness(t, true)
	h.backend.SetAnalytics(model.Analytics{
		TotalInteractions: 40,
		TotalWithFeedback: 10,
		TotalThumbsUp:     8,
		TotalThumbsDown:   2,
		ThumbsUpRate:      0.8,
	})
	h.key(tea.KeyCtrlT)
	require.Equal(t, nav.ScreenAnalytics, h.m.Screen())
	require.True(t, h.m.analytics.loaded)

	view := h.m.View()
	assert.Contains(t, view, "Total interactions")
	assert.Contains(t, view, "80.0%")
	assert.Contains(t, view, "25.0%")

	h.key(tea.KeyEsc)
	assert.Equal(t, nav.ScreenChat, h.m.Screen())
}

// =============================================================================
// SESSION
// =============================================================================

func TestLogoutClearsSession(t *testing.T) {
	h := newHarness(t, true)
	h.chatWith("hello")
	h.key(tea.KeyCtrlX)

	assert.Equal(t, nav.ScreenLogin, h.m.Screen())
	assert.False(t, h.sess.IsAuthenticated())
	assert.Equal(t, 0, h.ctrl.MessageCount())
	_, stored, err := h.store.LoadCredentials(context.Background())
	require.NoError(t, err)
	assert.False(t, stored)
}

func TestExpiredOverlayForcesSignIn(t *testing.T) {
	h := newHarness(t, true)
	h.send(session.ExpiryWarningMsg{Remaining: 90 * time.Second})
	assert.Contains(t, h.m.View(), "1:30")
	h.typeText("x")
	assert.False(t, h.m.overlay.IsVisible())
	assert.Equal(t, nav.ScreenChat, h.m.Screen())

	h.send(session.ExpiredMsg{})
	assert.Contains(t, h.m.View(), "Session expired")
	h.key(tea.KeyEnter)
	assert.Equal(t, nav.ScreenLogin, h.m.Screen())
}

func TestHelpToggle(t *testing.T) {
	h := newHarness(t, true)
	assert.NotContains(t, h.m.View(), "scroll up")
	h.key(tea.KeyF1)
	assert.Contains(t, h.m.View(), "scroll up")
	h.key(tea.KeyF1)
	assert.False(t, h.m.showHelp)
}

func TestConfigReloadSwitchesTheme(t *testing.T) {
	h := newHarness(t, true)
	cfg := config.Default()
	cfg.UI.Theme = "light"
	cfg.UI.RenderMarkdown = false
	h.send(configReloadedMsg{cfg: cfg})

	assert.Equal(t, styles.ModeLight, h.m.theme.Mode)
	assert.Same(t, cfg, h.m.cfg)
}

func TestScrollDebounceUsesLatestSequence(t *testing.T) {
	h := newHarness(t, true)
	for i := 0; i < 30; i++ {
		h.ctrl.Replace("", "", append(h.ctrl.Messages(), model.NewAIMessage("line")))
	}
	cmd := h.m.refreshChat()
	stale := h.m.chat.scrollSeq - 1

	next, _ := h.m.Update(scrollMsg{seq: stale})
	h.m = next.(Model)
	assert.False(t, h.m.chat.viewport.AtBottom())

	h.drain(cmd)
	assert.True(t, h.m.chat.viewport.AtBottom())
}
