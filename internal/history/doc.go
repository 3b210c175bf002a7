// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history bridges the chat controller and the backend's saved
// chats: save (create, then update once bound), list, load and email.
//
// Every call needs a bearer token. Without one the call fails with
// session.ErrNoToken before any request is made.
package history
