// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/applianceai-tui/internal/api"
	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/storage"
)

// =============================================================================
// FAKE BACKEND
// =============================================================================

type fakeBackend struct {
	mu sync.Mutex

	loginResp *api.LoginResponse
	loginErr  error
	signupErr error
	signups   int

	reply    *api.ChatReply
	sendErr  error
	sends    []api.ChatRequest
	sendGate chan struct{}

	tips    []model.Tip
	tipsErr error

	sessions []model.SessionSummary
	messages []model.Message
	cleared  int

	refreshResp *api.RefreshResponse
	refreshErr  error
	user        *model.User
	verifyErr   error
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (*api.LoginResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeBackend) Signup(ctx context.Context, username, email, password string) (*api.SignupResponse, error) {
	f.mu.Lock()
	f.signups++
	f.mu.Unlock()
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return &api.SignupResponse{}, nil
}

func (f *fakeBackend) Verify(ctx context.Context) (*model.User, error) {
	return f.user, f.verifyErr
}

func (f *fakeBackend) Refresh(ctx context.Context) (*api.RefreshResponse, error) {
	return f.refreshResp, f.refreshErr
}

func (f *fakeBackend) SendMessage(ctx context.Context, message, appliance, brand string) (*api.ChatReply, error) {
	f.mu.Lock()
	f.sends = append(f.sends, api.ChatRequest{Message: message, Appliance: appliance, Brand: brand})
	gate := f.sendGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.reply, nil
}

func (f *fakeBackend) MaintenanceTips(ctx context.Context, appliance, brand string) ([]model.Tip, error) {
	return f.tips, f.tipsErr
}

func (f *fakeBackend) ClearHistory(ctx context.Context) error {
	f.cleared++
	return nil
}

func (f *fakeBackend) RecentSessions(ctx context.Context) ([]model.SessionSummary, error) {
	return f.sessions, nil
}

func (f *fakeBackend) SessionMessages(ctx context.Context, id string) ([]model.Message, error) {
	return f.messages, nil
}

func (f *fakeBackend) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func newTestStore(b *fakeBackend) (*Store, *storage.MemoryStore) {
	tokens := storage.NewMemoryStore()
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return New(b, tokens, WithClock(func() time.Time { return clock })), tokens
}

func selectFridge(s *Store) {
	s.Dispatch(SelectAppliance{ID: "refrigerator"})
	s.Dispatch(SelectBrand{ID: "lg"})
}

// =============================================================================
// REDUCER PROPERTIES
// =============================================================================

func TestSelectionChangeAlwaysClearsMessages(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	appliances := []string{"refrigerator", "washing-machine", ""}
	brands := []string{"lg", "samsung", ""}
	now := time.Now()

	s := InitialState()
	for i := 0; i < 500; i++ {
		s.Chat = reduceChat(s.Chat, AppendMessage{Message: model.Message{Type: model.MessageUser, Content: "x"}}, now)
		before := s.Chat
		var a Action
		if rng.Intn(2) == 0 {
			a = SelectAppliance{ID: appliances[rng.Intn(len(appliances))]}
		} else {
			a = SelectBrand{ID: brands[rng.Intn(len(brands))]}
		}
		s.Chat = reduceChat(s.Chat, a, now)
		if s.Chat.SelectedAppliance != before.SelectedAppliance || s.Chat.SelectedBrand != before.SelectedBrand {
			require.Empty(t, s.Chat.Messages, "step %d: %#v", i, a)
		}
		assert.Greater(t, s.Chat.Epoch, before.Epoch)
	}
}

func TestAppendMessageAssignsIncreasingIDs(t *testing.T) {
	s := New(&fakeBackend{}, nil)
	for i := 0; i < 25; i++ {
		s.Dispatch(AppendMessage{Message: model.Message{Type: model.MessageUser, Content: string(rune('a' + i))}})
	}
	msgs := s.Snapshot().Chat.Messages
	require.Len(t, msgs, 25)
	for i, m := range msgs {
		assert.Equal(t, string(rune('a'+i)), m.Content, "call order kept")
		assert.False(t, m.Timestamp.IsZero())
		if i > 0 {
			assert.Greater(t, m.ID, msgs[i-1].ID)
		}
	}
}

func TestBack(t *testing.T) {
	s := New(&fakeBackend{}, nil)
	selectFridge(s)
	s.Dispatch(AppendMessage{Message: model.Message{Content: "hi"}})

	s.Dispatch(Back{})
	chat := s.Snapshot().Chat
	assert.Equal(t, "refrigerator", chat.SelectedAppliance)
	assert.Empty(t, chat.SelectedBrand)
	assert.Empty(t, chat.Messages)

	s.Dispatch(Back{})
	chat = s.Snapshot().Chat
	assert.Empty(t, chat.SelectedAppliance)

	s.Dispatch(Back{})
	assert.Empty(t, s.Snapshot().Chat.SelectedAppliance)
}

func TestSelectBrandSeedsStaticTips(t *testing.T) {
	s := New(&fakeBackend{}, nil)
	selectFridge(s)
	chat := s.Snapshot().Chat
	require.Len(t, chat.Tips, 3)
	assert.Equal(t, "LG Temperature Settings", chat.Tips[0].Title)
	assert.False(t, chat.TipsLoaded)

	s.Dispatch(ClearSelection{})
	assert.Empty(t, s.Snapshot().Chat.Tips)
}

func TestSetFeedbackReplacesMessageInPlace(t *testing.T) {
	s := New(&fakeBackend{}, nil)
	s.Dispatch(AppendMessage{Message: model.Message{Type: model.MessageAI, Content: "a"}})
	s.Dispatch(AppendMessage{Message: model.Message{Type: model.MessageAI, Content: "b"}})
	before := s.Snapshot()

	s.Dispatch(SetFeedback{ID: 2, Feedback: model.FeedbackUp})
	after := s.Snapshot().Chat.Messages
	assert.Equal(t, model.FeedbackUp, after[1].Feedback)
	assert.Equal(t, "b", after[1].Content)
	assert.Equal(t, model.FeedbackNone, before.Chat.Messages[1].Feedback, "older snapshot untouched")
}

func TestUIReducer(t *testing.T) {
	s := New(&fakeBackend{}, nil)
	s.Dispatch(SetRightPanelTab{Tab: PanelHistory})
	s.Dispatch(ToggleSidebar{})
	s.Dispatch(SetTheme{Theme: "light"})
	s.Dispatch(SetTheme{Theme: "neon"})
	s.Dispatch(Notify{Kind: NotifyInfo, Text: "one"})
	s.Dispatch(Notify{Kind: NotifyError, Text: "two"})

	ui := s.Snapshot().UI
	assert.True(t, ui.RightPanelOpen)
	assert.Equal(t, PanelHistory, ui.RightPanelTab)
	assert.False(t, ui.SidebarOpen)
	assert.Equal(t, "light", ui.Theme)
	require.Len(t, ui.Notifications, 2)

	s.Dispatch(DismissNotification{ID: ui.Notifications[0].ID})
	ui = s.Snapshot().UI
	require.Len(t, ui.Notifications, 1)
	assert.Equal(t, "two", ui.Notifications[0].Text)

	for i := 0; i < MaxNotifications+5; i++ {
		s.Dispatch(Notify{Kind: NotifyInfo, Text: "spam"})
	}
	assert.Len(t, s.Snapshot().UI.Notifications, MaxNotifications)
}

// =============================================================================
// SEND
// =============================================================================

func TestSubmitScenario(t *testing.T) {
	b := &fakeBackend{reply: &api.ChatReply{ID: "1", Timestamp: api.Timestamp{Time: time.UnixMilli(1000)}, Response: "Check the water line."}}
	s, _ := newTestStore(b)
	selectFridge(s)

	require.NoError(t, s.Submit(context.Background(), "ice maker leaking"))

	chat := s.Snapshot().Chat
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, model.MessageUser, chat.Messages[0].Type)
	assert.Equal(t, "ice maker leaking", chat.Messages[0].Content)
	assert.Equal(t, model.MessageAI, chat.Messages[1].Type)
	assert.Equal(t, "Check the water line.", chat.Messages[1].Content)
	assert.Equal(t, time.UnixMilli(1000), chat.Messages[1].Timestamp)
	assert.Equal(t, StatusIdle, chat.Status)
	assert.Equal(t, []api.ChatRequest{{Message: "ice maker leaking", Appliance: "refrigerator", Brand: "lg"}}, b.sends)
}

func TestSubmitFailureKeepsOptimisticMessage(t *testing.T) {
	b := &fakeBackend{sendErr: errors.New("connection refused")}
	s, _ := newTestStore(b)
	selectFridge(s)

	require.NoError(t, s.Submit(context.Background(), "hello"))

	chat := s.Snapshot().Chat
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, "hello", chat.Messages[0].Content)
	assert.Equal(t, StatusError, chat.Status)
	assert.Equal(t, "Failed to send message", chat.Error)

	// error -> sending on the next send
	b.sendErr = nil
	b.reply = &api.ChatReply{Response: "ok"}
	require.NoError(t, s.Submit(context.Background(), "again"))
	chat = s.Snapshot().Chat
	assert.Equal(t, StatusIdle, chat.Status)
	assert.Empty(t, chat.Error)
	assert.Len(t, chat.Messages, 3)
}

func TestSubmitGuards(t *testing.T) {
	b := &fakeBackend{reply: &api.ChatReply{Response: "ok"}}
	s, _ := newTestStore(b)

	assert.ErrorIs(t, s.Submit(context.Background(), "   \n\t"), ErrEmptyMessage)
	assert.ErrorIs(t, s.Submit(context.Background(), "hello"), ErrNoSelection)
	s.Dispatch(SelectAppliance{ID: "refrigerator"})
	assert.ErrorIs(t, s.Submit(context.Background(), "hello"), ErrNoSelection)

	assert.Empty(t, s.Snapshot().Chat.Messages)
	assert.Zero(t, b.sendCount())
}

func TestSecondSendWhileSendingIsRejected(t *testing.T) {
	gate := make(chan struct{})
	b := &fakeBackend{reply: &api.ChatReply{Response: "ok"}, sendGate: gate}
	s, _ := newTestStore(b)
	selectFridge(s)

	p, err := s.BeginSubmit("first")
	require.NoError(t, err)
	assert.True(t, s.Snapshot().Chat.IsTyping())

	_, err = s.BeginSubmit("second")
	assert.ErrorIs(t, err, ErrSendInFlight)
	assert.ErrorIs(t, s.SendMessage(context.Background(), "third", "refrigerator", "lg"), ErrSendInFlight)

	done := make(chan struct{})
	go func() {
		p.Run(context.Background())
		close(done)
	}()
	close(gate)
	<-done

	chat := s.Snapshot().Chat
	assert.Equal(t, 1, b.sendCount())
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, "first", chat.Messages[0].Content)
	assert.Equal(t, StatusIdle, chat.Status)
}

func TestLateReplyAfterSelectionChangeIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	b := &fakeBackend{reply: &api.ChatReply{Response: "fridge answer"}, sendGate: gate}
	s, _ := newTestStore(b)
	selectFridge(s)

	p, err := s.BeginSubmit("noise")
	require.NoError(t, err)

	s.Dispatch(SelectAppliance{ID: "washing-machine"})
	s.Dispatch(SelectBrand{ID: "samsung"})

	close(gate)
	p.Run(context.Background())

	chat := s.Snapshot().Chat
	assert.Empty(t, chat.Messages)
	assert.Equal(t, StatusIdle, chat.Status, "sending state still ends")
	assert.Equal(t, "washing-machine", chat.SelectedAppliance)
}

func TestSendMessageDoesNotAppendUserMessage(t *testing.T) {
	b := &fakeBackend{reply: &api.ChatReply{Response: "direct"}}
	s, _ := newTestStore(b)

	require.NoError(t, s.SendMessage(context.Background(), "q", "refrigerator", "samsung"))
	chat := s.Snapshot().Chat
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, model.MessageAI, chat.Messages[0].Type)
}

// =============================================================================
// TIPS AND HISTORY
// =============================================================================

func TestFetchTipsBackendWins(t *testing.T) {
	b := &fakeBackend{tips: []model.Tip{
		{Title: "low", Urgency: model.UrgencyLow},
		{Title: "high", Urgency: model.UrgencyHigh},
	}}
	s, _ := newTestStore(b)
	selectFridge(s)

	s.FetchMaintenanceTips(context.Background(), "refrigerator", "lg")
	chat := s.Snapshot().Chat
	assert.True(t, chat.TipsLoaded)
	require.Len(t, chat.Tips, 2)
	assert.Equal(t, "high", chat.Tips[0].Title)
}

func TestFetchTipsEmptyFallsBackToStatic(t *testing.T) {
	s, _ := newTestStore(&fakeBackend{})
	s.Dispatch(SelectAppliance{ID: "washing-machine"})
	s.Dispatch(SelectBrand{ID: "samsung"})

	s.FetchMaintenanceTips(context.Background(), "washing-machine", "samsung")
	chat := s.Snapshot().Chat
	require.Len(t, chat.Tips, 3)
	assert.Equal(t, model.UrgencyHigh, chat.Tips[0].Urgency)
	assert.Equal(t, model.UrgencyMedium, chat.Tips[2].Urgency)
}

func TestFetchTipsFailureKeepsList(t *testing.T) {
	s, _ := newTestStore(&fakeBackend{tipsErr: errors.New("boom")})
	selectFridge(s)
	before := s.Snapshot().Chat.Tips

	s.FetchMaintenanceTips(context.Background(), "refrigerator", "lg")
	chat := s.Snapshot().Chat
	assert.Equal(t, before, chat.Tips)
	assert.Equal(t, "Failed to load tips", chat.TipsError)
}

func TestFetchTipsForOtherSelectionIsIgnored(t *testing.T) {
	b := &fakeBackend{tips: []model.Tip{{Title: "Drum Clean", Urgency: model.UrgencyHigh}}}
	s, _ := newTestStore(b)
	selectFridge(s)
	before := s.Snapshot().Chat.Tips

	s.FetchMaintenanceTips(context.Background(), "washing-machine", "samsung")
	chat := s.Snapshot().Chat
	assert.Equal(t, before, chat.Tips)
	assert.False(t, chat.TipsLoaded)

	b.tipsErr = errors.New("boom")
	s.FetchMaintenanceTips(context.Background(), "washing-machine", "samsung")
	assert.Empty(t, s.Snapshot().Chat.TipsError)
}

func TestHistoryFlow(t *testing.T) {
	b := &fakeBackend{
		sessions: []model.SessionSummary{{ID: "12", Name: "LG Refrigerator Support", MessageCount: 2}},
		messages: []model.Message{
			{Type: model.MessageUser, Content: "q"},
			{Type: model.MessageAI, Content: "a"},
		},
	}
	s, _ := newTestStore(b)
	ctx := context.Background()

	s.FetchHistory(ctx)
	chat := s.Snapshot().Chat
	assert.Equal(t, LoadLoaded, chat.HistoryStatus)
	require.Len(t, chat.History, 1)

	s.FetchSessionMessages(ctx, "12")
	chat = s.Snapshot().Chat
	assert.Equal(t, "12", chat.CurrentSessionID)
	require.Len(t, chat.Messages, 2)
	assert.Less(t, chat.Messages[0].ID, chat.Messages[1].ID)

	s.ClearHistory(ctx)
	chat = s.Snapshot().Chat
	assert.Empty(t, chat.History)
	assert.Empty(t, chat.Messages)
	assert.Equal(t, 1, b.cleared)
}

// =============================================================================
// AUTH
// =============================================================================

func TestLoginSuccessStoresTokens(t *testing.T) {
	b := &fakeBackend{loginResp: &api.LoginResponse{Access: "a1", Refresh: "r1", Username: "sam", Email: "sam@example.com"}}
	s, tokens := newTestStore(b)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "sam@example.com", "pw"))

	st := s.Snapshot()
	assert.True(t, st.Auth.IsAuthenticated)
	assert.Equal(t, "sam", st.Auth.User.Username)
	assert.Equal(t, RouteChat, st.UI.Route)

	tok, ok, _ := tokens.Get(ctx, storage.KeyToken)
	assert.True(t, ok)
	assert.Equal(t, "a1", tok)
	ref, _, _ := tokens.Get(ctx, storage.KeyRefreshToken)
	assert.Equal(t, "r1", ref)
}

func TestLoginFailureRecordsError(t *testing.T) {
	b := &fakeBackend{loginErr: &api.APIError{Status: 400, Message: "Invalid credentials"}}
	s, _ := newTestStore(b)
	require.NoError(t, s.Login(context.Background(), "x@y.z", "bad"))

	auth := s.Snapshot().Auth
	assert.False(t, auth.IsAuthenticated)
	assert.False(t, auth.Loading)
	assert.Equal(t, "Invalid credentials", auth.Error)

	b.loginErr = errors.New("dial tcp")
	require.NoError(t, s.Login(context.Background(), "x@y.z", "bad"))
	assert.Equal(t, "Login failed", s.Snapshot().Auth.Error)

	s.Dispatch(ClearAuthError{})
	assert.Empty(t, s.Snapshot().Auth.Error)

	assert.ErrorIs(t, s.Login(context.Background(), " ", "pw"), ErrMissingCredentials)
}

func TestSignup(t *testing.T) {
	b := &fakeBackend{}
	s, _ := newTestStore(b)
	ctx := context.Background()
	s.Dispatch(SetActiveTab{Tab: TabSignup})

	err := s.Signup(ctx, "sam", "sam@example.com", "pw1", "pw2")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Zero(t, b.signups, "no request on mismatch")

	require.NoError(t, s.Signup(ctx, "sam", "sam@example.com", "pw1", "pw1"))
	st := s.Snapshot()
	assert.False(t, st.Auth.IsAuthenticated)
	assert.Equal(t, TabLogin, st.UI.ActiveTab)

	b.signupErr = errors.New("offline")
	require.NoError(t, s.Signup(ctx, "sam", "sam@example.com", "pw1", "pw1"))
	assert.Equal(t, "Signup failed", s.Snapshot().Auth.Error)
}

func TestLogoutClearsEverything(t *testing.T) {
	b := &fakeBackend{loginResp: &api.LoginResponse{Access: "a1", Refresh: "r1"}, reply: &api.ChatReply{Response: "ok"}}
	s, tokens := newTestStore(b)
	ctx := context.Background()
	require.NoError(t, s.Login(ctx, "a@b.c", "pw"))
	selectFridge(s)
	require.NoError(t, s.Submit(ctx, "hi"))

	s.Logout(ctx)

	st := s.Snapshot()
	assert.False(t, st.Auth.IsAuthenticated)
	assert.Empty(t, st.Auth.Token)
	assert.Nil(t, st.Auth.User)
	assert.Empty(t, st.Chat.SelectedAppliance)
	assert.Empty(t, st.Chat.Messages)
	assert.Empty(t, st.Chat.Tips)
	assert.Equal(t, RouteLogin, st.UI.Route)
	assert.Zero(t, tokens.Len())
}

func TestResumeRefreshesAndVerifies(t *testing.T) {
	b := &fakeBackend{
		refreshResp: &api.RefreshResponse{Access: "fresh"},
		user:        &model.User{Username: "sam", Email: "sam@example.com"},
	}
	s, tokens := newTestStore(b)
	ctx := context.Background()
	require.NoError(t, tokens.Set(ctx, storage.KeyToken, "old"))
	require.NoError(t, tokens.Set(ctx, storage.KeyRefreshToken, "r1"))

	s.Resume(ctx)

	st := s.Snapshot()
	assert.True(t, st.Auth.IsAuthenticated)
	assert.Equal(t, "fresh", st.Auth.Token)
	assert.Equal(t, "r1", st.Auth.RefreshToken)
	assert.Equal(t, "sam", st.Auth.User.Username)
	assert.Equal(t, RouteChat, st.UI.Route)
	tok, _, _ := tokens.Get(ctx, storage.KeyToken)
	assert.Equal(t, "fresh", tok)
}

func TestResumeWithoutToken(t *testing.T) {
	s, _ := newTestStore(&fakeBackend{})
	s.Resume(context.Background())
	st := s.Snapshot()
	assert.False(t, st.Auth.IsAuthenticated)
	assert.Equal(t, RouteHome, st.UI.Route)
}

// TestUnauthorizedResponseForcesLogoutOnce runs the real client against a
// server that rejects every token.
func TestUnauthorizedResponseForcesLogoutOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Given token not valid"}`))
	}))
	defer srv.Close()

	tokens := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, tokens.Set(ctx, storage.KeyToken, "bad"))
	require.NoError(t, tokens.Set(ctx, storage.KeyRefreshToken, "bad-refresh"))

	client := api.New(api.Options{BaseURL: srv.URL, Tokens: tokens})
	s := New(client, tokens)
	client.OnUnauthorized(s.HandleUnauthorized)
	s.Hydrate(ctx)
	selectFridge(s)

	require.NoError(t, s.Submit(ctx, "hello"))

	st := s.Snapshot()
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 1, st.UI.LoginRedirects)
	assert.Equal(t, RouteLogin, st.UI.Route)
	require.Len(t, st.UI.Notifications, 1)
	assert.Equal(t, NotifyWarning, st.UI.Notifications[0].Kind)
	assert.False(t, st.Auth.IsAuthenticated)
	assert.Equal(t, StatusIdle, st.Chat.Status, "stale send result does not set an error")
	assert.Zero(t, tokens.Len())
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

func TestSubscribe(t *testing.T) {
	s := New(&fakeBackend{}, nil)
	var seen []Route
	cancel := s.Subscribe(func(st State) { seen = append(seen, st.UI.Route) })

	s.Dispatch(Navigate{Route: RouteLogin})
	s.Dispatch(Navigate{Route: RouteChat})
	cancel()
	cancel()
	s.Dispatch(Navigate{Route: RouteHome})

	assert.Equal(t, []Route{RouteLogin, RouteChat}, seen)
}

func TestSubscribersNeverGoBackwards(t *testing.T) {
	s := New(&fakeBackend{}, nil)
	var mu sync.Mutex
	var last uint64
	backwards := false
	s.Subscribe(func(st State) {
		mu.Lock()
		defer mu.Unlock()
		if st.Chat.Epoch < last {
			backwards = true
		}
		last = st.Chat.Epoch
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Dispatch(SelectAppliance{ID: "refrigerator"})
			}
		}()
	}
	wg.Wait()

	assert.False(t, backwards)
	assert.Equal(t, uint64(400), s.Snapshot().Chat.Epoch)
}
