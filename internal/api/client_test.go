// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/storage"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *storage.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	tokens := storage.NewMemoryStore()
	return New(Options{BaseURL: srv.URL + "/api/", Tokens: tokens}), tokens
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSendMessage(t *testing.T) {
	client, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, ChatRequest{Message: "ice maker leaking", Appliance: "refrigerator", Brand: "lg"}, req)

		w.Write([]byte(`{"id":1,"timestamp":1000,"response":"Check the water line.","confidence":0.92,"sources":["manual","faq"]}`))
	})
	require.NoError(t, tokens.Set(context.Background(), storage.KeyToken, "tok-1"))

	reply, err := client.SendMessage(context.Background(), "ice maker leaking", "refrigerator", "lg")
	require.NoError(t, err)
	assert.Equal(t, ID("1"), reply.ID)
	assert.Equal(t, time.UnixMilli(1000), reply.Timestamp.Time)

	msg := reply.Message()
	assert.Equal(t, model.MessageAI, msg.Type)
	assert.Equal(t, "Check the water line.", msg.Content)
	assert.Equal(t, "1", msg.RemoteID)
	assert.Equal(t, "manual, faq", msg.Source)
	assert.Equal(t, "92%", msg.ConfidencePercent())
}

func TestSendMessageRetrievalSources(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":3,"message":"ice maker leaking","response":"Check the inlet valve.",` +
			`"sources":[{"file_name":"lg_fridge.pdf","chunk_id":4,"distance":0.21,"text":"Inlet valve..."},` +
			`{"file_name":"lg_fridge.pdf","chunk_id":9,"distance":0.33,"text":"Water line..."},` +
			`{"chunk_id":12,"distance":0.5}],"timestamp":"2025-03-01T10:00:00Z"}`))
	})

	reply, err := client.SendMessage(context.Background(), "ice maker leaking", "refrigerator", "lg")
	require.NoError(t, err)

	msg := reply.Message()
	assert.Equal(t, "Check the inlet valve.", msg.Content)
	assert.Equal(t, "lg_fridge.pdf, chunk 12", msg.Source)
}

func TestSourcesLabel(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", ``, ""},
		{"null", `null`, ""},
		{"string", `"Owner's manual"`, "Owner's manual"},
		{"strings", `["manual","faq","manual"]`, "manual, faq"},
		{"titles", `[{"title":"Manual p.4"},{"url":"https://example.com/faq"}]`, "Manual p.4, https://example.com/faq"},
		{"retrieval hits", `[{"file_name":"wm.pdf","chunk_id":1},{"file_name":"wm.pdf","chunk_id":2}]`, "wm.pdf"},
		{"chunk only", `[{"chunk_id":"7"}]`, "chunk 7"},
		{"unknown shape", `{"file_name":"x.pdf"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sourcesLabel(json.RawMessage(tt.raw)))
		})
	}
}

func TestNoAuthorizationWithoutToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []any{})
	})
	_, err := client.RecentSessions(context.Background())
	require.NoError(t, err)
}

func TestUnauthorizedClearsTokensAndFiresOnce(t *testing.T) {
	client, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
	})
	ctx := context.Background()
	require.NoError(t, tokens.Set(ctx, storage.KeyToken, "stale"))
	require.NoError(t, tokens.Set(ctx, storage.KeyRefreshToken, "stale-refresh"))

	var fired atomic.Int32
	client.OnUnauthorized(func() { fired.Add(1) })

	_, err := client.SendMessage(ctx, "hi", "refrigerator", "lg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, IsAuthError(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Token expired", apiErr.Message)

	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, 0, tokens.Len())

	_, err = client.RecentSessions(ctx)
	require.Error(t, err)
	assert.Equal(t, int32(2), fired.Load(), "once per response")
}

func TestErrorResponsesPassThrough(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		message  string
	}{
		{"detail", http.StatusBadRequest, `{"detail":"Invalid credentials"}`, nil, "Invalid credentials"},
		{"field error", http.StatusBadRequest, `{"email":["Enter a valid email address."]}`, nil, "email: Enter a valid email address."},
		{"non field", http.StatusBadRequest, `{"non_field_errors":["Unable to log in."]}`, nil, "Unable to log in."},
		{"not found", http.StatusNotFound, `{"error":"no such session"}`, ErrNotFound, "no such session"},
		{"rate limited", http.StatusTooManyRequests, `{}`, ErrRateLimited, ""},
		{"server", http.StatusBadGateway, `<html>bad gateway</html>`, ErrServer, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := client.Login(context.Background(), "a@b.c", "pw")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.body, string(apiErr.Body))
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
			assert.False(t, errors.Is(err, ErrUnauthorized))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Invalid credentials", Message(&APIError{Status: 400, Message: "Invalid credentials"}, "Login failed"))
	assert.Equal(t, "Login failed", Message(&APIError{Status: 500}, "Login failed"))
	assert.Equal(t, "Login failed", Message(errors.New("dial tcp: refused"), "Login failed"))
	assert.Equal(t, "dial tcp: refused", Message(errors.New("dial tcp: refused"), ""))
}

func TestTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	client := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := client.SendMessage(context.Background(), "hi", "refrigerator", "lg")
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, "The server took too long to respond", Message(err, "Send failed"))
}

func TestResponseTooLarge(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"`))
		w.Write([]byte(strings.Repeat("a", MaxResponseSize+10)))
		w.Write([]byte(`"`))
	})
	_, err := client.Verify(context.Background())
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestMaintenanceTips(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/tips/washing-machine", r.URL.Path)
		assert.Equal(t, "samsung", r.URL.Query().Get("brand"))
		w.Write([]byte(`[{"icon":"!","title":"Drum Clean","description":"Run it","urgency":"HIGH"}]`))
	})
	tips, err := client.MaintenanceTips(context.Background(), "washing-machine", "samsung")
	require.NoError(t, err)
	require.Len(t, tips, 1)
	assert.Equal(t, model.UrgencyHigh, tips[0].Urgency)
	assert.Equal(t, "Drum Clean", tips[0].Title)
}

func TestRecentSessionsAndMessages(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat-history/recent_sessions/":
			w.Write([]byte(`[{"id":12,"session_name":"LG Refrigerator Support","message_count":4,"updated_at":"2025-03-01T10:00:00Z"},{"id":"13","message_count":0,"updated_at":1700000000000}]`))
		case "/api/chat-history/12/messages/":
			w.Write([]byte(`[
				{"id":1,"message":"noise","response":"Check the fan.","sources":[{"title":"Manual p.4"}],"timestamp":"2025-03-01T10:00:00Z"},
				{"id":2,"type":"user","content":"thanks","timestamp":"2025-03-01T10:01:00Z"}
			]`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	sessions, err := client.RecentSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "12", sessions[0].ID)
	assert.Equal(t, "LG Refrigerator Support", sessions[0].Title())
	assert.Equal(t, "Chat 13", sessions[1].Title())
	assert.Equal(t, time.UnixMilli(1700000000000), sessions[1].UpdatedAt)

	msgs, err := client.SessionMessages(ctx, "12")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, model.MessageUser, msgs[0].Type)
	assert.Equal(t, "noise", msgs[0].Content)
	assert.Equal(t, model.MessageAI, msgs[1].Type)
	assert.Equal(t, "Check the fan.", msgs[1].Content)
	assert.Equal(t, "Manual p.4", msgs[1].Source)
	assert.Equal(t, model.MessageUser, msgs[2].Type)

	_, err = client.SessionMessages(ctx, "99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefresh(t *testing.T) {
	client, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "r-1", body["refresh"])
		w.Write([]byte(`{"access":"a-2"}`))
	})
	ctx := context.Background()

	_, err := client.Refresh(ctx)
	assert.ErrorIs(t, err, ErrNoRefreshToken)

	require.NoError(t, tokens.Set(ctx, storage.KeyRefreshToken, "r-1"))
	out, err := client.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a-2", out.Access)
}

func TestClearHistoryEmptyBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	assert.NoError(t, client.ClearHistory(context.Background()))
}

func TestRateLimiterHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New(Options{BaseURL: srv.URL, RateLimit: 0.001, RateBurst: 1})
	require.NoError(t, client.ClearHistory(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := client.ClearHistory(ctx)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestTimestampDecoding(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2025-01-02T03:04:05.123Z"`), &ts))
	assert.Equal(t, 2025, ts.Year())
	require.NoError(t, json.Unmarshal([]byte(`1000`), &ts))
	assert.Equal(t, time.UnixMilli(1000), ts.Time)
	require.NoError(t, json.Unmarshal([]byte(`"1000"`), &ts))
	assert.Equal(t, time.UnixMilli(1000), ts.Time)
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}
