// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmate/healthmate-tui/internal/model"
)

// =============================================================================
// SEALER TESTS
// =============================================================================

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("secret-token"), []byte("token"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "secret-token")

	plain, err := s.Open(sealed, []byte("token"))
	require.NoError(t, err)
	assert.Equal(t, "secret-token", string(plain))
}

func TestSealer_RejectsTamperingAndWrongContext(t *testing.T) {
	s, err := NewSealer(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	sealed, err := s.Seal([]byte("secret"), []byte("token"))
	require.NoError(t, err)

	_, err = s.Open(sealed, []byte("user"))
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	sealed[len(sealed)-1] ^= 0xff
	_, err = s.Open(sealed, []byte("token"))
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = s.Open([]byte("short"), []byte("token"))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNewSealer_KeyLength(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLoadOrCreateKey_Stable(t *testing.T) {
	path := filepath.Join(t.TempDir(), KeyFile)
	k1, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	k2, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	if os.PathSeparator == '/' {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

// =============================================================================
// STATE STORE TESTS
// =============================================================================

func testCreds() model.Credentials {
	return model.Credentials{
		Token: "eyJhbGciOi.fake.token",
		User:  model.UserSummary{ID: "u1", FirstName: "Ann", Email: "ann@example.com"},
	}
}

func TestStateStore_CredentialsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory()
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.LoadCredentials(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveCredentials(ctx, testCreds()))

	got, ok, err := store.LoadCredentials(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "eyJhbGciOi.fake.token", got.Token)
	assert.Equal(t, "Ann", got.User.FirstName)

	require.NoError(t, store.ClearCredentials(ctx))
	_, err = store.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, KeyUser)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStateStore_TokenNotStoredInPlaintext(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveCredentials(ctx, testCreds()))
	require.NoError(t, store.Close())

	db, err := sql.Open("sqlite", filepath.Join(dir, DatabaseFile))
	require.NoError(t, err)
	defer db.Close()

	var raw []byte
	require.NoError(t, db.QueryRow("SELECT value FROM kv WHERE key = ?", KeyToken).Scan(&raw))
	assert.False(t, bytes.Contains(raw, []byte("eyJhbGciOi")), "token must be sealed")
}

func TestStateStore_PersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveCredentials(ctx, testCreds()))
	require.NoError(t, store.Close())

	store, err = Open(dir)
	require.NoError(t, err)
	defer store.Close()
	got, ok, err := store.LoadCredentials(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testCreds().Token, got.Token)
}

func TestStateStore_WrongKeyClearsCredentials(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveCredentials(ctx, testCreds()))
	require.NoError(t, store.Close())

	// A regenerated key can no longer open the stored token.
	require.NoError(t, os.Remove(filepath.Join(dir, KeyFile)))

	store, err = Open(dir)
	require.NoError(t, err)
	defer store.Close()
	_, ok, err := store.LoadCredentials(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = store.Get(ctx, KeyUser)
	assert.ErrorIs(t, err, ErrNotFound, "user must be cleared with the token")
}

func TestStateStore_UpdateRollsBack(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory()
	require.NoError(t, err)
	defer store.Close()

	boom := errors.New("boom")
	err = store.Update(ctx, func(tx *Tx) error {
		require.NoError(t, tx.Put(KeyToken, []byte("x")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveCredentials_RejectsEmptyToken(t *testing.T) {
	store, err := OpenMemory()
	require.NoError(t, err)
	defer store.Close()
	assert.Error(t, store.SaveCredentials(context.Background(), model.Credentials{}))
}
