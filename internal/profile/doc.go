// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package profile implements the profile editor and the onboarding lists.
//
// An Editor works on a private draft copied from the cached profile; nothing
// is sent until a Submitter validates and submits it. The backend may echo
// only some fields; the rest keep the values that were sent.
package profile
