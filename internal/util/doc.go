// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across assistroute.
//
// # Key Functions
//
//   - TruncateRunes: UTF-8 safe truncation with ellipsis, used for log lines
//   - TruncateRunesNoEllipsis: UTF-8 safe truncation, used for cache key prefixes
//   - RedactSecret: Masks credentials in printed configuration
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	display := util.TruncateRunes(query, 80)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
