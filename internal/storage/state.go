// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/healthmate/healthmate-tui/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DatabaseFile is the state database file name.
	DatabaseFile = "state.db"
	// KeyFile is the sealing key file name.
	KeyFile = "state.key"

	// KeyToken holds the sealed bearer token.
	KeyToken = "token"
	// KeyUser holds the JSON user summary.
	KeyUser = "user"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);`

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("key not found")

// =============================================================================
// STATE STORE
// =============================================================================

// StateStore is a sqlite-backed key/value store.
type StateStore struct {
	db     *sql.DB
	sealer *Sealer
	path   string
}

// Open opens (or creates) the state database and key under dir.
func Open(dir string) (*StateStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	key, err := LoadOrCreateKey(filepath.Join(dir, KeyFile))
	if err != nil {
		return nil, err
	}
	sealer, err := NewSealer(key)
	zeroBytes(key)
	if err != nil {
		return nil, err
	}

	return openDB(filepath.Join(dir, DatabaseFile), sealer)
}

// OpenMemory opens a private in-memory store with a random key.
func OpenMemory() (*StateStore, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	sealer, err := NewSealer(key)
	zeroBytes(key)
	if err != nil {
		return nil, err
	}
	return openDB(":memory:", sealer)
}

func openDB(path string, sealer *Sealer) (*StateStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has one writer; a single connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if path != ":memory:" {
		// SECURITY: owner-only access to the database file
		_ = os.Chmod(path, 0600)
	}

	return &StateStore{db: db, sealer: sealer, path: path}, nil
}

// Close closes the database.
func (s *StateStore) Close() error {
	return s.db.Close()
}

// Path returns the database path.
func (s *StateStore) Path() string {
	return s.path
}

// =============================================================================
// KEY/VALUE OPERATIONS
// =============================================================================

// Get returns the raw value for key, or ErrNotFound.
func (s *StateStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// Update runs fn inside one transaction. All writes commit or none do.
func (s *StateStore) Update(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	tx := &Tx{ctx: ctx, tx: sqlTx}
	if err := fn(tx); err != nil {
		sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Tx is a write transaction handed to Update callbacks.
type Tx struct {
	ctx context.Context
	tx  *sql.Tx
}

// Put stores value under key.
func (t *Tx) Put(key string, value []byte) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (t *Tx) Delete(key string) error {
	if _, err := t.tx.ExecContext(t.ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// CREDENTIALS
// =============================================================================

// SaveCredentials writes the sealed token and the user summary together.
func (s *StateStore) SaveCredentials(ctx context.Context, creds model.Credentials) error {
	if creds.Token == "" {
		return errors.New("refusing to store empty token")
	}
	sealed, err := s.sealer.Seal([]byte(creds.Token), []byte(KeyToken))
	if err != nil {
		return err
	}
	user, err := json.Marshal(creds.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return s.Update(ctx, func(tx *Tx) error {
		if err := tx.Put(KeyToken, sealed); err != nil {
			return err
		}
		return tx.Put(KeyUser, user)
	})
}

// LoadCredentials returns the stored credentials. ok is false when no token
// is stored. A token that fails to unseal is treated as absent and cleared.
func (s *StateStore) LoadCredentials(ctx context.Context) (creds model.Credentials, ok bool, err error) {
	sealed, err := s.Get(ctx, KeyToken)
	if errors.Is(err, ErrNotFound) {
		return model.Credentials{}, false, nil
	}
	if err != nil {
		return model.Credentials{}, false, err
	}

	token, err := s.sealer.Open(sealed, []byte(KeyToken))
	if err != nil {
		if clearErr := s.ClearCredentials(ctx); clearErr != nil {
			return model.Credentials{}, false, clearErr
		}
		return model.Credentials{}, false, nil
	}
	creds.Token = string(token)

	if raw, err := s.Get(ctx, KeyUser); err == nil {
		// A corrupt user summary is not fatal; the profile fetch refreshes it.
		_ = json.Unmarshal(raw, &creds.User)
	} else if !errors.Is(err, ErrNotFound) {
		return model.Credentials{}, false, err
	}
	return creds, true, nil
}

// ClearCredentials removes the token and user summary together.
func (s *StateStore) ClearCredentials(ctx context.Context) error {
	return s.Update(ctx, func(tx *Tx) error {
		if err := tx.Delete(KeyToken); err != nil {
			return err
		}
		return tx.Delete(KeyUser)
	})
}
