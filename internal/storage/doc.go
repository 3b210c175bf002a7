// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable local state for the HealthMate client.
//
// State lives in a small sqlite key/value table. The bearer token is sealed
// with XChaCha20-Poly1305 under a per-install key before it touches disk.
//
// # Key Types
//
//   - StateStore: sqlite-backed key/value store with transactions
//   - Sealer: authenticated encryption for values at rest
//
// # Usage
//
//	store, err := storage.Open(dir)
//	defer store.Close()
//	err = store.SaveCredentials(ctx, creds)
//	creds, ok, err := store.LoadCredentials(ctx)
//
// # Storage Location
//
// By default ~/.healthmate/state.db and ~/.healthmate/state.key.
package storage
