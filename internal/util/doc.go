// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the client packages.
//
// Text helpers:
//   - Truncate: display-width aware truncation with an ellipsis
//   - NormalizeMessage: NFC normalisation and line-ending cleanup for
//     text typed or dictated into the composer
//
// File helpers:
//   - WriteFileAtomic: crash-safe writes (temp file, fsync, rename)
//
// # Usage
//
//	label := util.Truncate(session.Title, 24)
//	text := util.NormalizeMessage(composer.Value())
//	err := util.WriteFileAtomic(path, data, 0600)
package util
