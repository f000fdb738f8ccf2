// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components renders the pieces of the chat screen: the selection
// sidebar, message bubbles, the tips and history panel, notifications, the
// status bar and the welcome screen.
//
// Components are pure render functions over store snapshots. They hold no
// state of their own beyond render caches; cursors and focus live in the
// page models that call them.
package components
