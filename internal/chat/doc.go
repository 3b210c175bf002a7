// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the chat session controller.
//
// A send is split into Begin, Run and Complete so the TUI can render the
// user's message before the reply arrives:
//
//	ex, err := ctrl.Begin(text)    // appends the user message, sets pending
//	resp, err := ctrl.Run(ctx, ex) // backend call, no controller state touched
//	msg, err := ctrl.Complete(ex, resp, err)
//
// Only one exchange may be pending at a time. Each accepted send therefore
// grows the log by exactly two messages. Reset and Replace advance an epoch;
// a Complete for an older epoch is dropped with ErrStaleExchange.
package chat
