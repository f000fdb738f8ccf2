// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"time"
)

// SessionSummary is one entry of the backend's recent chat sessions.
type SessionSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"session_name,omitempty"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Title returns the session name, falling back to "Chat <id>".
func (s SessionSummary) Title() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("Chat %s", s.ID)
}

// User is the identity recorded after a successful login.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// DisplayName prefers the username and falls back to the email address.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
