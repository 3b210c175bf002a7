// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable pieces of the HealthMate TUI.

Components are plain structs with a View method. They hold no backend
references; the screens in package app feed them state.

  - Header (header.go) - Brand, screen title and signed-in user.
  - StatusBar (statusbar.go) - Status with shape indicator and key hints.
  - MessageBubble (message.go) - One chat message. ai replies are rendered
    through a MarkdownRenderer (glamour in production) and carry the urgent
    banner, abstain note, source list, confidence and feedback state.
  - ToastManager (toast.go) - Auto-dismissing notifications for background
    results such as saves and emails.
  - ExpiryOverlay (expiry_overlay.go) - Warns before the sign-in token
    expires and announces expiry.
*/
package components
