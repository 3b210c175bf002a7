// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the HealthMate client.
//
// # Key Functions
//
// String Utilities:
//   - Preview: rune-safe preview with a trailing ellipsis
//   - OneLine: whitespace collapsing for single-line list rows
//   - TruncateWidth: column-accurate truncation for terminal layout
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	entry := util.Preview(lastMessage, 60)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
