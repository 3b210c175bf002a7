// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the process-wide sign-in state.
//
// # Key Types
//
//   - Store: bearer token, user summary and cached profile
//   - ExpiryWatch: Bubble Tea driven warning before a JWT expires
//
// # Lifecycle
//
// At start-up the application calls Restore, then Validate when a token was
// found:
//
//	ok, err := store.Restore(ctx)
//	if ok {
//	    profile, err := store.Validate(ctx)
//	    // errors.Is(err, session.ErrInvalidSession): token already cleared
//	}
//
// Validation fails closed: a rejected token, a transport error or an
// already-expired JWT all clear the persisted credentials. There is no
// silent refresh; the token is used until Logout or server rejection.
//
// The token and user summary are always written and cleared together.
package session
