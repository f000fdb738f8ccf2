// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/applianceai-tui/internal/api"
	"github.com/jeranaias/applianceai-tui/internal/logging"
	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/storage"
)

// Backend is the subset of the API client the store calls.
type Backend interface {
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	Signup(ctx context.Context, username, email, password string) (*api.SignupResponse, error)
	Verify(ctx context.Context) (*model.User, error)
	Refresh(ctx context.Context) (*api.RefreshResponse, error)
	SendMessage(ctx context.Context, message, appliance, brand string) (*api.ChatReply, error)
	MaintenanceTips(ctx context.Context, appliance, brand string) ([]model.Tip, error)
	ClearHistory(ctx context.Context) error
	RecentSessions(ctx context.Context) ([]model.SessionSummary, error)
	SessionMessages(ctx context.Context, sessionID string) ([]model.Message, error)
}

// Reduce applies a to every slice of s.
func Reduce(s State, a Action, now time.Time) State {
	s.Auth = reduceAuth(s.Auth, a, now)
	s.Chat = reduceChat(s.Chat, a, now)
	s.UI = reduceUI(s.UI, a, now)
	return s
}

// Store owns the client state. Dispatch is safe for concurrent use; actions
// are applied in the order Dispatch is entered.
type Store struct {
	mu    sync.Mutex
	state State

	version uint64
	subs    map[int]func(State)
	nextSub int

	// notifyMu serialises subscriber callbacks; delivered is the newest
	// version handed to them.
	notifyMu  sync.Mutex
	delivered uint64

	backend Backend
	tokens  storage.Store
	now     func() time.Time
	log     zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for message and notification
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithInitialState replaces InitialState.
func WithInitialState(st State) Option {
	return func(s *Store) { s.state = st }
}

// New creates a Store over backend and durable token storage.
func New(backend Backend, tokens storage.Store, opts ...Option) *Store {
	if tokens == nil {
		tokens = storage.NewMemoryStore()
	}
	s := &Store{
		state:   InitialState(),
		subs:    make(map[int]func(State)),
		backend: backend,
		tokens:  tokens,
		now:     time.Now,
		log:     logging.For("store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Dispatch applies a and notifies subscribers.
func (s *Store) Dispatch(a Action) {
	_ = s.dispatchIf(a, nil)
}

// dispatchIf applies a only when guard accepts the current state. The guard
// and the reduction happen under one lock.
func (s *Store) dispatchIf(a Action, guard func(State) error) error {
	s.mu.Lock()
	if guard != nil {
		if err := guard(s.state); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.state = Reduce(s.state, a, s.now())
	s.version++
	version := s.version
	snap := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	s.mu.Unlock()

	s.log.Debug().Str("action", a.actionName()).Uint64("version", version).Msg("dispatch")

	// A concurrent dispatch may already have delivered a newer state.
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if version <= s.delivered {
		return nil
	}
	s.delivered = version
	for _, fn := range subs {
		fn(snap)
	}
	return nil
}

// Subscribe registers fn to receive the state after every dispatch.
// Subscribers run in registration order and never see an older state after
// a newer one; they must not dispatch synchronously. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// HandleUnauthorized is registered with the API client; it runs after the
// client has removed the stored tokens.
func (s *Store) HandleUnauthorized() {
	s.log.Info().Msg("backend rejected token, logging out")
	s.Dispatch(ForcedLogout{})
}
