// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/applianceai-tui/internal/api"
	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/storage"
	"github.com/jeranaias/applianceai-tui/internal/store"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "hunter22"
)

// stepClock advances one minute on every reading.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type harness struct {
	srv    *Server
	client *api.Client
	tokens *storage.MemoryStore
	unauth atomic.Int32
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	clock := &stepClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now), WithSeedUser("demo", demoEmail, demoPassword)}, opts...)
	srv := New(opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	h := &harness{srv: srv, tokens: storage.NewMemoryStore()}
	h.client = api.New(api.Options{BaseURL: ts.URL + "/api", Tokens: h.tokens})
	h.client.OnUnauthorized(func() { h.unauth.Add(1) })
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	resp, err := h.client.Login(ctx, demoEmail, demoPassword)
	require.NoError(t, err)
	require.NoError(t, h.tokens.Set(ctx, storage.KeyToken, resp.Access))
	require.NoError(t, h.tokens.Set(ctx, storage.KeyRefreshToken, resp.Refresh))
}

func TestSignupLoginVerify(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.Signup(ctx, "ana", "ana@example.com", "pw")
	require.NoError(t, err)

	resp, err := h.client.Login(ctx, "ana@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "ana", resp.Username)
	assert.NotEmpty(t, resp.Access)
	assert.NotEmpty(t, resp.Refresh)

	require.NoError(t, h.tokens.Set(ctx, storage.KeyToken, resp.Access))
	user, err := h.client.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, &model.User{Username: "ana", Email: "ana@example.com"}, user)
}

func TestSignupRejectsDuplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.Signup(ctx, "demo", "other@example.com", "pw")
	require.Error(t, err)
	assert.Equal(t, "Username already exists", api.Message(err, ""))

	_, err = h.client.Signup(ctx, "other", demoEmail, "pw")
	assert.Equal(t, "Email already exists", api.Message(err, ""))

	_, err = h.client.Signup(ctx, "", "", "")
	assert.Equal(t, "All fields are required", api.Message(err, ""))
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.Login(context.Background(), demoEmail, "wrong")
	require.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, "Invalid Credentials", api.Message(err, ""))
	assert.Equal(t, int32(1), h.unauth.Load())
}

func TestChatGroupsSessionsBySelection(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	reply, err := h.client.SendMessage(ctx, "ice maker leaking", "refrigerator", "lg")
	require.NoError(t, err)
	assert.Contains(t, reply.Response, "Ice maker")
	assert.Equal(t, "LG Refrigerator Manual", reply.SourceLabel())
	require.NotNil(t, reply.Confidence)
	assert.False(t, reply.Timestamp.IsZero())

	_, err = h.client.SendMessage(ctx, "it is too warm", "refrigerator", "lg")
	require.NoError(t, err)
	_, err = h.client.SendMessage(ctx, "won't drain", "washing-machine", "samsung")
	require.NoError(t, err)

	sessions, err := h.client.RecentSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "Samsung Washing-machine Support", sessions[0].Title())
	assert.Equal(t, "Lg Refrigerator Support", sessions[1].Title())
	assert.Equal(t, 2, sessions[1].MessageCount)

	msgs, err := h.client.SessionMessages(ctx, sessions[1].ID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, model.MessageUser, msgs[0].Type)
	assert.Equal(t, "ice maker leaking", msgs[0].Content)
	assert.Equal(t, model.MessageAI, msgs[1].Type)
	assert.Equal(t, "LG Refrigerator Manual", msgs[1].Source)
	assert.Equal(t, "it is too warm", msgs[2].Content)
}

func TestChatValidation(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	_, err := h.client.SendMessage(ctx, "hello", "refrigerator", "")
	require.Error(t, err)
	assert.Equal(t, "Appliance and brand are required.", api.Message(err, ""))

	_, err = h.client.SendMessage(ctx, "  ", "refrigerator", "lg")
	assert.Equal(t, "This field may not be blank.", api.Message(err, ""))
}

func TestSessionsArePerUser(t *testing.T) {
	h := newHarness(t, WithSeedUser("other", "other@example.com", "pw"))
	h.login(t)
	ctx := context.Background()

	_, err := h.client.SendMessage(ctx, "noise", "refrigerator", "lg")
	require.NoError(t, err)
	sessions, err := h.client.RecentSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	resp, err := h.client.Login(ctx, "other@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, h.tokens.Set(ctx, storage.KeyToken, resp.Access))

	others, err := h.client.RecentSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, others)

	_, err = h.client.SessionMessages(ctx, sessions[0].ID)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestTipsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	got, err := h.client.MaintenanceTips(ctx, "refrigerator", "samsung")
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "Samsung Temperature Settings", got[0].Title)
	assert.Equal(t, "Annual Service Check", got[3].Title)
	assert.Equal(t, model.UrgencyLow, got[3].Urgency)

	_, err = h.client.MaintenanceTips(ctx, "toaster", "")
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestClearHistory(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	_, err := h.client.SendMessage(ctx, "smell", "washing-machine", "lg")
	require.NoError(t, err)
	require.NoError(t, h.client.ClearHistory(ctx))

	sessions, err := h.client.RecentSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.RecentSessions(context.Background())
	require.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, "Authentication credentials were not provided.", api.Message(err, ""))
	assert.Equal(t, int32(1), h.unauth.Load())
}

func TestExpiredTokenAndRefresh(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()
	oldRefresh, _, _ := h.tokens.Get(ctx, storage.KeyRefreshToken)

	h.srv.ExpireTokens()

	refreshed, err := h.client.Refresh(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, oldRefresh, refreshed.Refresh, "refresh tokens rotate")
	require.NoError(t, h.tokens.Set(ctx, storage.KeyToken, refreshed.Access))

	_, err = h.client.Verify(ctx)
	require.NoError(t, err)

	// The rotated-out refresh token is spent.
	require.NoError(t, h.tokens.Set(ctx, storage.KeyRefreshToken, oldRefresh))
	_, err = h.client.Refresh(ctx)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestAccessTokenTTL(t *testing.T) {
	h := newHarness(t, WithAccessTTL(90*time.Second))
	h.login(t)

	// The step clock moves a minute per request: the first call is inside
	// the TTL, the second is past it.
	_, err := h.client.Verify(context.Background())
	require.NoError(t, err)
	_, err = h.client.Verify(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, WithRateLimit(2, time.Minute))
	ctx := context.Background()

	_, err := h.client.Signup(ctx, "a", "a@example.com", "pw")
	require.NoError(t, err)
	_, err = h.client.Signup(ctx, "b", "b@example.com", "pw")
	require.NoError(t, err)
	_, err = h.client.Signup(ctx, "c", "c@example.com", "pw")
	assert.ErrorIs(t, err, api.ErrRateLimited)
}

func TestCORSPreflightAndHealth(t *testing.T) {
	srv := New()

	req := httptest.NewRequest(http.MethodOptions, "/api/chat/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/chat/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	rec := httptest.NewRecorder()
	New().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"detail"`))
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("a"))
}

// TestStoreEndToEnd drives the state store through the real client against
// the in-memory backend.
func TestStoreEndToEnd(t *testing.T) {
	h := newHarness(t)
	s := store.New(h.client, h.tokens)
	h.client.OnUnauthorized(s.HandleUnauthorized)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, demoEmail, demoPassword))
	st := s.Snapshot()
	require.True(t, st.Auth.IsAuthenticated)
	assert.Equal(t, store.RouteChat, st.UI.Route)

	s.Dispatch(store.SelectAppliance{ID: "refrigerator"})
	s.Dispatch(store.SelectBrand{ID: "lg"})
	require.NoError(t, s.Submit(ctx, "ice maker leaking"))

	st = s.Snapshot()
	require.Len(t, st.Chat.Messages, 2)
	assert.Equal(t, "ice maker leaking", st.Chat.Messages[0].Content)
	assert.Contains(t, st.Chat.Messages[1].Content, "water line")
	assert.Equal(t, store.StatusIdle, st.Chat.Status)

	s.FetchMaintenanceTips(ctx, "refrigerator", "lg")
	assert.Len(t, s.Snapshot().Chat.Tips, 4)

	s.FetchHistory(ctx)
	st = s.Snapshot()
	require.Len(t, st.Chat.History, 1)
	assert.Equal(t, "Lg Refrigerator Support", st.Chat.History[0].Title())

	h.srv.ExpireTokens()
	s.FetchHistory(ctx)
	st = s.Snapshot()
	assert.False(t, st.Auth.IsAuthenticated)
	assert.Equal(t, store.RouteLogin, st.UI.Route)
	assert.Equal(t, 1, st.UI.LoginRedirects)
	assert.Zero(t, h.tokens.Len())
}
