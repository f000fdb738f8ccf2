// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/applianceai-tui/internal/model"
)

// =============================================================================
// WIRE HELPERS
// =============================================================================

// Timestamp decodes RFC 3339 strings or epoch milliseconds.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		t.Time = time.Time{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			t.Time = time.UnixMilli(ms)
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}
	var ms float64
	if err := json.Unmarshal(b, &ms); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", b, err)
	}
	t.Time = time.UnixMilli(int64(ms))
	return nil
}

// MarshalJSON writes RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

// ID decodes a JSON number or string identifier into its string form.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}
	*id = ID(n.String())
	return nil
}

// =============================================================================
// AUTH
// =============================================================================

// LoginRequest is the body of POST /auth/login/.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is a successful login.
type LoginResponse struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// User returns the profile carried by the response.
func (r *LoginResponse) User() model.User {
	return model.User{Username: r.Username, Email: r.Email}
}

// SignupRequest is the body of POST /auth/signup/.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupResponse is whatever the backend acknowledges a signup with.
type SignupResponse struct {
	Message string `json:"message,omitempty"`
}

// RefreshResponse is a successful token refresh. Refresh is only set when the
// backend rotates refresh tokens.
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// =============================================================================
// CHAT
// =============================================================================

// ChatRequest is the body of POST /chat/.
type ChatRequest struct {
	Message   string `json:"message"`
	Appliance string `json:"appliance"`
	Brand     string `json:"brand"`
}

// ChatReply is the backend answer to a chat message.
type ChatReply struct {
	ID         ID        `json:"id"`
	Timestamp  Timestamp `json:"timestamp"`
	Response   string    `json:"response"`
	Source     string    `json:"source,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`

	// Sources is a string, a list of strings or a list of retrieval hits
	// such as {file_name, chunk_id, distance, text}.
	Sources json.RawMessage `json:"sources,omitempty"`
}

// SourceLabel returns Source, or a label built from Sources.
func (r *ChatReply) SourceLabel() string {
	if r.Source != "" {
		return r.Source
	}
	return sourcesLabel(r.Sources)
}

// Message converts the reply into an AI transcript message. The local id is
// assigned by the caller.
func (r *ChatReply) Message() model.Message {
	ts := r.Timestamp.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return model.Message{
		RemoteID:   string(r.ID),
		Timestamp:  ts,
		Type:       model.MessageAI,
		Content:    r.Response,
		Source:     r.SourceLabel(),
		Confidence: r.Confidence,
	}
}

// TipDTO is one tip from GET /chat/tips/:appliance.
type TipDTO struct {
	Icon        string `json:"icon,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Urgency     string `json:"urgency"`
}

// Tip converts the DTO into a model.Tip.
func (d TipDTO) Tip() model.Tip {
	return model.Tip{
		Icon:        d.Icon,
		Title:       d.Title,
		Description: d.Description,
		Urgency:     model.ParseUrgency(d.Urgency),
	}
}

// SessionDTO is one entry from GET /chat-history/recent_sessions/.
type SessionDTO struct {
	ID           ID        `json:"id"`
	SessionName  string    `json:"session_name,omitempty"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    Timestamp `json:"updated_at"`
}

// Summary converts the DTO into a model.SessionSummary.
func (d SessionDTO) Summary() model.SessionSummary {
	return model.SessionSummary{
		ID:           string(d.ID),
		Name:         d.SessionName,
		MessageCount: d.MessageCount,
		UpdatedAt:    d.UpdatedAt.Time,
	}
}

// SessionRecordDTO covers both shapes served by
// GET /chat-history/:id/messages/. Serializer records carry a question and
// its answer (Message, Response); flat records carry one message (Type,
// Content).
type SessionRecordDTO struct {
	ID        ID        `json:"id"`
	Timestamp Timestamp `json:"timestamp"`

	Message  string          `json:"message,omitempty"`
	Response string          `json:"response,omitempty"`
	Sources  json.RawMessage `json:"sources,omitempty"`

	Type    string `json:"type,omitempty"`
	Content string `json:"content,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Messages expands the record into transcript messages without local ids.
func (d SessionRecordDTO) Messages() []model.Message {
	ts := d.Timestamp.Time
	if d.Type != "" || d.Content != "" {
		typ := model.MessageAI
		if strings.EqualFold(d.Type, "user") {
			typ = model.MessageUser
		}
		return []model.Message{{
			RemoteID:  string(d.ID),
			Timestamp: ts,
			Type:      typ,
			Content:   d.Content,
			Source:    d.Source,
		}}
	}

	var out []model.Message
	if d.Message != "" {
		out = append(out, model.Message{
			RemoteID:  string(d.ID),
			Timestamp: ts,
			Type:      model.MessageUser,
			Content:   d.Message,
		})
	}
	if d.Response != "" {
		out = append(out, model.Message{
			RemoteID:  string(d.ID),
			Timestamp: ts,
			Type:      model.MessageAI,
			Content:   d.Response,
			Source:    sourcesLabel(d.Sources),
		})
	}
	return out
}

// sourcesLabel renders a sources field that may be a string, a list of
// strings or a list of objects. Objects are named by file_name, title, name
// or url; a bare chunk_id becomes "chunk N". Repeated names appear once.
func sourcesLabel(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return joinUnique(list)
	}
	var objs []map[string]any
	if json.Unmarshal(raw, &objs) != nil {
		return ""
	}
	names := make([]string, 0, len(objs))
	for _, o := range objs {
		if n := sourceName(o); n != "" {
			names = append(names, n)
		}
	}
	return joinUnique(names)
}

func sourceName(o map[string]any) string {
	for _, k := range []string{"file_name", "title", "name", "url"} {
		if v, ok := o[k].(string); ok && v != "" {
			return v
		}
	}
	switch v := o["chunk_id"].(type) {
	case float64:
		return fmt.Sprintf("chunk %d", int64(v))
	case string:
		if v != "" {
			return "chunk " + v
		}
	}
	return ""
}

func joinUnique(names []string) string {
	seen := make(map[string]bool, len(names))
	out := names[:0:0]
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return strings.Join(out, ", ")
}
