// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/storage"
)

// ErrNoRefreshToken is returned by Refresh when no refresh token is stored.
var ErrNoRefreshToken = errors.New("no refresh token stored")

// Login exchanges credentials for tokens. Tokens are not stored here.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login/", LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup registers a new account. It does not log in.
func (c *Client) Signup(ctx context.Context, username, email, password string) (*SignupResponse, error) {
	var out SignupResponse
	req := SignupRequest{Username: username, Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/signup/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify checks the stored token and returns the profile it belongs to.
func (c *Client) Verify(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/auth/verify", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh trades the stored refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context) (*RefreshResponse, error) {
	refresh, ok, err := c.tokens.Get(ctx, storage.KeyRefreshToken)
	if err != nil {
		return nil, err
	}
	if !ok || refresh == "" {
		return nil, ErrNoRefreshToken
	}
	var out RefreshResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", map[string]string{"refresh": refresh}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage posts one user message for the selected appliance and brand.
func (c *Client) SendMessage(ctx context.Context, message, appliance, brand string) (*ChatReply, error) {
	var out ChatReply
	req := ChatRequest{Message: message, Appliance: appliance, Brand: brand}
	if err := c.do(ctx, http.MethodPost, "/chat/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MaintenanceTips fetches backend tips for an appliance. brand may be empty.
func (c *Client) MaintenanceTips(ctx context.Context, appliance, brand string) ([]model.Tip, error) {
	path := "/chat/tips/" + url.PathEscape(appliance)
	if brand != "" {
		path += "?" + url.Values{"brand": {brand}}.Encode()
	}
	var dtos []TipDTO
	if err := c.do(ctx, http.MethodGet, path, nil, &dtos); err != nil {
		return nil, err
	}
	tips := make([]model.Tip, 0, len(dtos))
	for _, d := range dtos {
		tips = append(tips, d.Tip())
	}
	return tips, nil
}

// ClearHistory deletes the user's chat history on the backend.
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/chat/history", nil, nil)
}

// RecentSessions lists the user's recent chat sessions.
func (c *Client) RecentSessions(ctx context.Context) ([]model.SessionSummary, error) {
	var dtos []SessionDTO
	if err := c.do(ctx, http.MethodGet, "/chat-history/recent_sessions/", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]model.SessionSummary, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.Summary())
	}
	return out, nil
}

// SessionMessages fetches a session's transcript in order. Local ids are left
// zero for the caller to assign.
func (c *Client) SessionMessages(ctx context.Context, sessionID string) ([]model.Message, error) {
	var records []SessionRecordDTO
	path := "/chat-history/" + url.PathEscape(sessionID) + "/messages/"
	if err := c.do(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	var out []model.Message
	for _, r := range records {
		out = append(out, r.Messages()...)
	}
	return out, nil
}
