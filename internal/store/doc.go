// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the client state of applianceai.
//
// State is split into three slices, each owned by a pure reducer:
//
//   - AuthState: user, tokens, authentication flag and auth errors
//   - ChatState: appliance/brand selection, transcript, send status, tips
//     and chat history
//   - UIState: route, panels, theme and notifications
//
// A single Store applies typed actions to all three reducers in dispatch
// order. Network operations live in thunks.go; they call the backend and
// dispatch the outcome. Failures are stored as display strings on the owning
// slice and are never returned, except for the client-side guard errors
// (ErrSendInFlight, ErrNoSelection, ErrEmptyMessage, ErrPasswordMismatch,
// ErrMissingCredentials).
//
// Changing the appliance or brand always clears the transcript and advances
// a selection epoch. Send and tips results that carry an older epoch end the
// sending state but are otherwise dropped.
package store
