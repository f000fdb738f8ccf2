// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for applianceai.
//
// Configuration is layered, later sources winning:
//
//  1. Built-in defaults (Default)
//  2. ~/.applianceai/config.toml
//  3. .env files in the working directory and the config directory
//  4. APPLIANCEAI_* environment variables
//
// The most common override is the backend origin:
//
//	APPLIANCEAI_API_BASE=https://support.example.com/api applianceai
//
// VITE_API_BASE is honoured as a fallback so the web frontend's .env can be
// reused unchanged.
//
// # Hot reload
//
// Watch follows the config file with fsnotify and hands a freshly loaded
// Config to a callback after edits settle. The TUI uses it to switch themes
// without a restart.
package config
