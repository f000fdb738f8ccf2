// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"time"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// MessageType identifies who authored a transcript entry.
type MessageType string

const (
	MessageUser MessageType = "user"
	MessageAI   MessageType = "ai"
)

// String returns the wire representation of the type.
func (t MessageType) String() string {
	return string(t)
}

// DisplayName returns the label shown above a message.
func (t MessageType) DisplayName() string {
	switch t {
	case MessageUser:
		return "You"
	case MessageAI:
		return "Assistant"
	default:
		return string(t)
	}
}

// =============================================================================
// FEEDBACK
// =============================================================================

// Feedback is the thumbs up/down annotation a user can leave on a message.
type Feedback string

const (
	FeedbackNone Feedback = ""
	FeedbackUp   Feedback = "up"
	FeedbackDown Feedback = "down"
)

// =============================================================================
// MESSAGE
// =============================================================================

// Message is a single transcript entry. Messages are values: once appended to
// a transcript they are never edited in place.
type Message struct {
	// ID is assigned locally and strictly increases within a transcript.
	ID int64 `json:"id" yaml:"id"`

	// RemoteID is the backend identifier, when the message came from the server.
	RemoteID string `json:"remote_id,omitempty" yaml:"remote_id,omitempty"`

	Timestamp time.Time   `json:"timestamp" yaml:"timestamp"`
	Type      MessageType `json:"type" yaml:"type"`
	Content   string      `json:"content" yaml:"content"`

	// Source and Confidence are only set on AI messages.
	Source     string   `json:"source,omitempty" yaml:"source,omitempty"`
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	Feedback Feedback `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

// IsUser reports whether the message was written by the user.
func (m Message) IsUser() bool {
	return m.Type == MessageUser
}

// IsAI reports whether the message came from the assistant.
func (m Message) IsAI() bool {
	return m.Type == MessageAI
}

// ConfidencePercent formats the confidence as a whole percentage, or returns
// an empty string when the backend did not supply one.
func (m Message) ConfidencePercent() string {
	if m.Confidence == nil {
		return ""
	}
	c := *m.Confidence
	// Backends report either a 0-1 ratio or an already scaled percentage.
	if c <= 1 {
		c *= 100
	}
	return fmt.Sprintf("%.0f%%", c)
}

// Float returns a pointer to f, for optional numeric fields.
func Float(f float64) *float64 {
	return &f
}
