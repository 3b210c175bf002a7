// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders a conversation as a transcript file.
//
// # Key Types
//
//   - Exporter: renders a conversation (Markdown or JSON)
//   - Options: metadata, timestamp and source toggles
//
// # Usage
//
//	exp, err := export.ForFormat("md", nil)
//	path, err := export.ToFile(conv, exp, "")
//
// Files are written atomically with owner-only permissions since they
// contain health information.
package export
