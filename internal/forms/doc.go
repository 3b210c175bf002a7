// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package forms validates the login, signup and profile forms locally.
//
// Failures are returned as ValidationErrors, one entry per failed field,
// keyed by the field's wire name so views can show messages inline. Nothing
// in this package talks to the backend.
package forms
