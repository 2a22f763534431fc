// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across planforge.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - TruncateRunes / TruncateWidth: UTF-8 and display-width safe truncation
//   - TruncateForContext: cap prior stage output before it is fed forward
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0644)
//	prior := util.TruncateForContext(stageOneText, cfg.Pipeline.MaxContextChars)
package util
