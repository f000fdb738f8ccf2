// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the current transcript to Markdown, JSON or YAML.
//
// # Usage
//
//	exp, err := export.ForFormat("md", nil)
//	data, err := exp.Export(transcript)
//	path, err := export.WriteFile(transcript, exp, "/tmp")
//
// Files are written atomically with 0600 permissions.
package export
