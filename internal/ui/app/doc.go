// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the HealthMate terminal interface: the root Bubble Tea
// model and one view per screen.
//
// # Screens
//
// The active screen comes from the nav state machine:
//
//   - splash.go: brand card with sign-in and signup choices, plus the
//     loading screen shown while a restored token is validated
//   - auth.go: login and signup forms, validated locally before any call
//   - onboarding.go: allergy, medication and condition questions after signup
//   - chat.go: conversation, suggestions, rating and compose input
//   - history.go: saved conversations, open or email one
//   - profile.go: profile editor with list fields
//   - analytics.go: feedback summary with progress bars
//
// # Structure
//
//   - app.go: Model, Update routing, navigation, layout, View
//   - messages.go: result messages and the commands producing them
//   - keys.go: key bindings and help
//   - prompt.go: modal single-line prompts (title, email, comment)
//   - listfield.go: chip list editor with suggestion picker
//
// Backend work runs in commands that return a result message; Update
// never blocks. Chat replies that arrive after the conversation was reset
// or replaced are dropped by the chat controller.
package app
