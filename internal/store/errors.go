// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "errors"

// Client-side guard errors. Nothing is sent when one of these is returned.
var (
	// ErrSendInFlight rejects a send while another one is outstanding.
	ErrSendInFlight = errors.New("a message is already being sent")

	// ErrNoSelection rejects a send without an appliance and brand.
	ErrNoSelection = errors.New("select an appliance and brand first")

	// ErrEmptyMessage rejects empty or whitespace-only messages.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrPasswordMismatch rejects a signup whose confirmation differs.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrMissingCredentials rejects a login or signup with empty fields.
	ErrMissingCredentials = errors.New("please fill in all fields")
)
