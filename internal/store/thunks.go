// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jeranaias/applianceai-tui/internal/api"
	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/storage"
	"github.com/jeranaias/applianceai-tui/internal/tips"
	"github.com/jeranaias/applianceai-tui/internal/util"
)

// =============================================================================
// AUTH
// =============================================================================

// Hydrate loads stored tokens into the auth slice. A session is considered
// authenticated as soon as a token is stored.
func (s *Store) Hydrate(ctx context.Context) {
	token, _, err := s.tokens.Get(ctx, storage.KeyToken)
	if err != nil {
		s.log.Warn().Err(err).Msg("could not read stored token")
	}
	refresh, _, err := s.tokens.Get(ctx, storage.KeyRefreshToken)
	if err != nil {
		s.log.Warn().Err(err).Msg("could not read stored refresh token")
	}
	s.Dispatch(hydrated{Token: token, RefreshToken: refresh})
}

// Login authenticates and persists the tokens. Backend failures are stored
// on the auth slice.
func (s *Store) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrMissingCredentials
	}

	s.Dispatch(authStarted{})
	resp, err := s.backend.Login(ctx, email, password)
	if err != nil {
		s.log.Info().Err(err).Msg("login failed")
		s.Dispatch(authFailed{Err: api.Message(err, "Login failed")})
		return nil
	}

	if err := s.tokens.Set(ctx, storage.KeyToken, resp.Access); err != nil {
		s.log.Error().Err(err).Msg("failed to store token")
	}
	if resp.Refresh != "" {
		if err := s.tokens.Set(ctx, storage.KeyRefreshToken, resp.Refresh); err != nil {
			s.log.Error().Err(err).Msg("failed to store refresh token")
		}
	}

	user := resp.User()
	if user.Email == "" {
		user.Email = email
	}
	s.Dispatch(loginSucceeded{User: user, Token: resp.Access, RefreshToken: resp.Refresh})
	return nil
}

// Signup registers an account. It does not log in; on success the login tab
// becomes active.
func (s *Store) Signup(ctx context.Context, username, email, password, confirm string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return ErrMissingCredentials
	}
	if password != confirm {
		return ErrPasswordMismatch
	}

	s.Dispatch(authStarted{})
	if _, err := s.backend.Signup(ctx, username, email, password); err != nil {
		s.log.Info().Err(err).Msg("signup failed")
		s.Dispatch(authFailed{Err: api.Message(err, "Signup failed")})
		return nil
	}
	s.Dispatch(signupSucceeded{})
	return nil
}

// Logout clears the stored tokens and resets auth and chat state. It always
// succeeds; storage failures are logged.
func (s *Store) Logout(ctx context.Context) {
	if err := s.tokens.Remove(ctx, storage.KeyToken, storage.KeyRefreshToken); err != nil {
		s.log.Error().Err(err).Msg("failed to clear stored tokens")
	}
	s.Dispatch(Logout{})
}

// Refresh trades the stored refresh token for a new access token and writes
// it back to storage. It reports whether a new token was obtained.
func (s *Store) Refresh(ctx context.Context) bool {
	resp, err := s.backend.Refresh(ctx)
	if err != nil {
		if !errors.Is(err, api.ErrNoRefreshToken) {
			s.log.Info().Err(err).Msg("token refresh failed")
		}
		return false
	}
	if err := s.tokens.Set(ctx, storage.KeyToken, resp.Access); err != nil {
		s.log.Error().Err(err).Msg("failed to store refreshed token")
	}
	if resp.Refresh != "" {
		if err := s.tokens.Set(ctx, storage.KeyRefreshToken, resp.Refresh); err != nil {
			s.log.Error().Err(err).Msg("failed to store refresh token")
		}
	}
	s.Dispatch(tokenRefreshed{Token: resp.Access, RefreshToken: resp.Refresh})
	return true
}

// Verify checks the current token and records the user profile. A 401 has
// already logged the user out by the time it returns.
func (s *Store) Verify(ctx context.Context) {
	user, err := s.backend.Verify(ctx)
	if err != nil {
		s.log.Info().Err(err).Msg("token verification failed")
		return
	}
	s.Dispatch(verified{User: *user})
}

// Resume restores a stored session at startup: hydrate, refresh when a
// refresh token exists, then verify.
func (s *Store) Resume(ctx context.Context) {
	s.Hydrate(ctx)
	snap := s.Snapshot()
	if !snap.Auth.IsAuthenticated {
		return
	}
	if snap.Auth.RefreshToken != "" {
		s.Refresh(ctx)
	}
	if s.Snapshot().Auth.IsAuthenticated {
		s.Verify(ctx)
	}
}

// =============================================================================
// CHAT
// =============================================================================

// PendingSend is a send that has passed its guard and moved the chat to
// sending. Run performs the request.
type PendingSend struct {
	store     *Store
	epoch     uint64
	text      string
	appliance string
	brand     string
}

// Text returns the message being sent.
func (p *PendingSend) Text() string { return p.text }

// Run issues the request and records its outcome. It never returns an error;
// failures land on the chat slice.
func (p *PendingSend) Run(ctx context.Context) {
	s := p.store
	reply, err := s.backend.SendMessage(ctx, p.text, p.appliance, p.brand)
	stale := s.Snapshot().Chat.Epoch != p.epoch
	if err != nil {
		if stale {
			s.log.Debug().Err(err).Msg("discarding failed send for previous selection")
		}
		s.Dispatch(sendFailed{Epoch: p.epoch, Err: api.Message(err, "Failed to send message")})
		return
	}
	if stale {
		s.log.Debug().Msg("discarding reply for previous selection")
	}
	s.Dispatch(sendSucceeded{Epoch: p.epoch, Reply: reply.Message()})
}

// BeginSubmit runs the chat-input checks and, when they pass, appends the
// optimistic user message and enters the sending state in one step. The
// returned PendingSend must be run to complete the send.
func (s *Store) BeginSubmit(text string) (*PendingSend, error) {
	text = util.NormalizeMessage(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	var p *PendingSend
	user := model.Message{Type: model.MessageUser, Content: text}
	err := s.dispatchIf(sendStarted{User: &user}, func(st State) error {
		if !st.Chat.HasSelection() {
			return ErrNoSelection
		}
		if st.Chat.Status == StatusSending {
			return ErrSendInFlight
		}
		p = &PendingSend{
			store:     s,
			epoch:     st.Chat.Epoch,
			text:      text,
			appliance: st.Chat.SelectedAppliance,
			brand:     st.Chat.SelectedBrand,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Submit is BeginSubmit followed by Run.
func (s *Store) Submit(ctx context.Context, text string) error {
	p, err := s.BeginSubmit(text)
	if err != nil {
		return err
	}
	p.Run(ctx)
	return nil
}

// SendMessage sends text for an explicit selection without appending a user
// message. It is rejected while another send is outstanding.
func (s *Store) SendMessage(ctx context.Context, text, appliance, brand string) error {
	var p *PendingSend
	err := s.dispatchIf(sendStarted{}, func(st State) error {
		if st.Chat.Status == StatusSending {
			return ErrSendInFlight
		}
		p = &PendingSend{store: s, epoch: st.Chat.Epoch, text: text, appliance: appliance, brand: brand}
		return nil
	})
	if err != nil {
		return err
	}
	p.Run(ctx)
	return nil
}

// FetchMaintenanceTips loads backend tips for appliance and brand, falling
// back to the static table when the backend has none. The result is kept
// only while that pair is still the current selection.
func (s *Store) FetchMaintenanceTips(ctx context.Context, appliance, brand string) {
	epoch := s.Snapshot().Chat.Epoch
	backend, err := s.backend.MaintenanceTips(ctx, appliance, brand)
	if err != nil {
		s.log.Info().Err(err).Str("appliance", appliance).Msg("tips fetch failed")
		s.Dispatch(tipsFailed{Epoch: epoch, Appliance: appliance, Brand: brand, Err: api.Message(err, "Failed to load tips")})
		return
	}
	s.Dispatch(tipsLoaded{Epoch: epoch, Appliance: appliance, Brand: brand, Tips: tips.Resolve(appliance, brand, backend)})
}

// FetchHistory loads the recent sessions list.
func (s *Store) FetchHistory(ctx context.Context) {
	s.Dispatch(historyRequested{})
	sessions, err := s.backend.RecentSessions(ctx)
	if err != nil {
		s.Dispatch(historyFailed{Err: api.Message(err, "Failed to load chat history")})
		return
	}
	s.Dispatch(historyLoaded{Sessions: sessions})
}

// FetchSessionMessages replaces the transcript with a stored session.
func (s *Store) FetchSessionMessages(ctx context.Context, sessionID string) {
	msgs, err := s.backend.SessionMessages(ctx, sessionID)
	if err != nil {
		s.Dispatch(historyFailed{Err: api.Message(err, "Failed to load conversation")})
		return
	}
	s.Dispatch(sessionLoaded{ID: sessionID, Messages: msgs})
}

// ClearHistory deletes the backend history and empties the local lists.
func (s *Store) ClearHistory(ctx context.Context) {
	if err := s.backend.ClearHistory(ctx); err != nil {
		s.Dispatch(historyFailed{Err: api.Message(err, "Failed to clear chat history")})
		return
	}
	s.Dispatch(historyCleared{})
}
