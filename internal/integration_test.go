// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package internal holds end-to-end tests for the HealthMate client.
//
// These tests wire the real packages together against the scripted backend:
// - Sign-in persisted across restarts
// - A chat exchange saved, listed and reloaded
// - Transcript export of a reloaded chat
// - Concurrent sends against one controller
package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/healthmate/healthmate-tui/internal/api/apitest"
	"github.com/healthmate/healthmate-tui/internal/chat"
	"github.com/healthmate/healthmate-tui/internal/export"
	"github.com/healthmate/healthmate-tui/internal/history"
	"github.com/healthmate/healthmate-tui/internal/model"
	"github.com/healthmate/healthmate-tui/internal/session"
	"github.com/healthmate/healthmate-tui/internal/storage"
)

const (
	testEmail    = "ana@example.com"
	testPassword = "correct-horse"
)

// =============================================================================
// SESSION PERSISTENCE
// =============================================================================

func TestSessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	backend := apitest.NewBackend(t)
	backend.AddUser(testEmail, testPassword, model.UserProfile{Name: "Ana Ruiz"})
	dir := t.TempDir()

	// First run: sign in.
	st, err := storage.Open(dir)
	require.NoError(t, err)
	sess := session.NewStore(backend.Client(), st, zap.NewNop())
	_, err = sess.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// Second run: the token comes back without a login call.
	st, err = storage.Open(dir)
	require.NoError(t, err)
	defer st.Close()
	logins := backend.Calls("POST /auth/login")

	restored := session.NewStore(backend.Client(), st, zap.NewNop())
	ok, err := restored.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, restored.IsAuthenticated())
	assert.Equal(t, logins, backend.Calls("POST /auth/login"))

	profile, err := restored.Validate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana Ruiz", profile.Name)

	// Logging out removes the persisted token too.
	require.NoError(t, restored.Logout(ctx))
	_, found, err := st.LoadCredentials(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

// =============================================================================
// CHAT PIPELINE
// =============================================================================

func TestChatSaveListReloadExport(t *testing.T) {
	ctx := context.Background()
	backend := apitest.NewBackend(t)
	backend.AddUser(testEmail, testPassword, model.UserProfile{Name: "Ana Ruiz"})

	st, err := storage.OpenMemory()
	require.NoError(t, err)
	defer st.Close()
	client := backend.Client()
	sess := session.NewStore(client, st, zap.NewNop())
	_, err = sess.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	ctrl := chat.NewController(client, sess, zap.NewNop())
	reply, err := ctrl.Send(ctx, "I have a fever and a sore throat")
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "Echo: I have a fever and a sore throat", reply.Content)
	assert.NotEmpty(t, reply.Sources)

	bridge := history.NewBridge(client, sess, ctrl, zap.NewNop())
	id, err := bridge.Save(ctx, "Fever check")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	entries, err := bridge.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "Fever check", entries[0].Title)
	assert.Equal(t, 2, entries[0].MessageCount)

	// A fresh controller picks the chat back up from the backend.
	fresh := chat.NewController(client, sess, zap.NewNop())
	reloaded := history.NewBridge(client, sess, fresh, zap.NewNop())
	require.NoError(t, reloaded.Load(ctx, id))
	assert.Equal(t, id, fresh.ID())
	assert.Equal(t, "Fever check", fresh.Title())
	require.Len(t, fresh.Messages(), 2)
	assert.Equal(t, model.RoleUser, fresh.Messages()[0].Role)
	assert.Equal(t, model.RoleAI, fresh.Messages()[1].Role)

	exporter, err := export.ForFormat("md", export.DefaultOptions())
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "fever.md")
	path, err := export.ToFile(fresh.Conversation(), exporter, out)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Fever check")
	assert.Contains(t, string(data), "I have a fever and a sore throat")

	// Saving again updates the same chat instead of creating another.
	_, err = fresh.Send(ctx, "It started yesterday")
	require.NoError(t, err)
	again, err := reloaded.Save(ctx, "Fever check")
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, backend.Calls("POST /chat/save"))
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestConcurrentSendsKeepOneExchange(t *testing.T) {
	ctx := context.Background()
	backend := apitest.NewBackend(t)
	backend.AddUser(testEmail, testPassword, model.UserProfile{})

	st, err := storage.OpenMemory()
	require.NoError(t, err)
	defer st.Close()
	sess := session.NewStore(backend.Client(), st, zap.NewNop())
	_, err = sess.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	ctrl := chat.NewController(backend.Client(), sess, zap.NewNop())
	start := ctrl.MessageCount()

	const senders = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ctrl.Send(ctx, "hello")
			if errors.Is(err, chat.ErrExchangePending) {
				return
			}
			assert.NoError(t, err)
			mu.Lock()
			accepted++
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.GreaterOrEqual(t, accepted, 1)
	assert.Equal(t, start+2*accepted, ctrl.MessageCount(), "each accepted send adds one question and one reply")
	assert.False(t, ctrl.Pending())
}
