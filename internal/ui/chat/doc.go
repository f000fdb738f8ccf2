// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the root Bubble Tea model of the terminal client.
//
// The model owns no domain state. Every frame is drawn from a store
// snapshot; key presses become store actions or thunks, and thunks run
// inside tea.Cmds that report back with a message so the next frame picks up
// the new state. Three pages share the model:
//
//   - home: welcome screen and feature list
//   - login: login and signup tabs
//   - chat: selection sidebar, transcript, composer and the tips/history panel
//
// Side effects that follow from state changes (loading tips after a brand is
// chosen, loading history when the chat page opens, focusing the login form
// after a forced logout) are derived by comparing each snapshot with the
// previous one.
package chat
