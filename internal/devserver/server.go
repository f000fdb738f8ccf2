// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/jeranaias/applianceai-tui/internal/logging"
	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/tips"
)

const (
	// DefaultAddr is where cmd/devserver listens; it matches the client's
	// default base URL.
	DefaultAddr = "127.0.0.1:8000"

	// DefaultAccessTTL is how long an access token is accepted.
	DefaultAccessTTL = time.Hour

	recentSessionLimit = 10
	maxBodySize        = 64 * 1024
)

// ============================================================================
// SERVER
// ============================================================================

// Server is the in-memory backend.
type Server struct {
	data    *memory
	router  chi.Router
	now     func() time.Time
	log     zerolog.Logger
	cors    *CORSConfig
	limiter *RateLimiter

	accessTTL time.Duration
	seeds     []seedUser

	httpServer *http.Server
}

type seedUser struct{ username, email, password string }

// Option configures a Server.
type Option func(*Server)

// WithSeedUser creates an account at startup.
func WithSeedUser(username, email, password string) Option {
	return func(s *Server) { s.seeds = append(s.seeds, seedUser{username, email, password}) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithAccessTTL sets the access token lifetime.
func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) { s.accessTTL = d }
}

// WithRateLimit throttles each client IP to limit requests per window.
func WithRateLimit(limit int, window time.Duration) Option {
	return func(s *Server) {
		if limit > 0 {
			s.limiter = NewRateLimiter(limit, window)
		}
	}
}

// WithCORS replaces the default CORS policy.
func WithCORS(c *CORSConfig) Option {
	return func(s *Server) { s.cors = c }
}

// New builds a server with its routes mounted under the API root.
func New(opts ...Option) *Server {
	s := &Server{
		now:       time.Now,
		log:       logging.For("devserver"),
		cors:      DefaultCORSConfig(),
		accessTTL: DefaultAccessTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.data = newMemory(s.accessTTL)
	for _, u := range s.seeds {
		if _, err := s.data.createUser(u.username, u.email, u.password); err != nil {
			s.log.Warn().Err(err).Str("email", u.email).Msg("seed user skipped")
		}
	}
	s.setupRoutes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ExpireTokens invalidates every issued access token. Refresh tokens remain
// valid, which lets callers exercise the refresh path.
func (s *Server) ExpireTokens() {
	s.data.expireAccess()
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(RecoveryMiddleware(s.log))
	r.Use(LoggingMiddleware(s.log))
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(SecurityHeadersMiddleware())
	r.Use(CORSMiddleware(s.cors))
	if s.limiter != nil {
		r.Use(s.rateLimitMiddleware(s.limiter))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup/", s.handleSignup)
			r.Post("/login/", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.With(s.requireAuth).Get("/verify", s.handleVerify)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/chat/", s.handleChat)
			r.Get("/chat/tips/{appliance}", s.handleTips)
			r.Delete("/chat/history", s.handleClearHistory)
			r.Get("/chat-history/recent_sessions/", s.handleRecentSessions)
			r.Get("/chat-history/{id}/messages/", s.handleSessionMessages)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeDetail(w, http.StatusNotFound, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeDetail(w, http.StatusMethodNotAllowed, "Method \""+r.Method+"\" not allowed.")
	})
	s.router = r
}

// ============================================================================
// AUTH HANDLERS
// ============================================================================

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	u, err := s.data.createUser(req.Username, req.Email, req.Password)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.log.Info().Str("username", u.Username).Msg("account created")
	s.writeJSON(w, http.StatusCreated, map[string]string{"message": "User created successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email and password are required"})
		return
	}
	u, access, refresh, err := s.data.login(req.Email, req.Password, s.now())
	if err != nil {
		s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"access":   access,
		"refresh":  refresh,
		"username": u.Username,
		"email":    u.Email,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Refresh == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}
	access, refresh, err := s.data.refreshAccess(req.Refresh, s.now())
	if err != nil {
		s.writeDetail(w, http.StatusUnauthorized, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"access": access, "refresh": refresh})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	u := userFromContext(r.Context())
	s.writeJSON(w, http.StatusOK, model.User{Username: u.Username, Email: u.Email})
}

// ============================================================================
// CHAT HANDLERS
// ============================================================================

type recordJSON struct {
	ID        int       `json:"id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Sources   []source  `json:"sources"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message   string `json:"message"`
		Appliance string `json:"appliance"`
		Brand     string `json:"brand"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string][]string{"message": {"This field may not be blank."}})
		return
	}
	if req.Appliance == "" || req.Brand == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {"Appliance and brand are required."}})
		return
	}

	u := userFromContext(r.Context())
	answer, sources, confidence := answerFor(req.Message, req.Appliance, req.Brand)
	rec, sess := s.data.appendRecord(u.ID, req.Appliance, req.Brand, record{
		Message:   req.Message,
		Response:  answer,
		Sources:   sources,
		Timestamp: s.now().UTC(),
	})
	s.log.Debug().Int("session", sess.ID).Int("record", rec.ID).Msg("answered")

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"id":         rec.ID,
		"session_id": strconv.Itoa(sess.ID),
		"message":    rec.Message,
		"response":   rec.Response,
		"sources":    rec.Sources,
		"confidence": confidence,
		"timestamp":  rec.Timestamp,
	})
}

// annualCheck is served ahead of the client's built-in tips so callers can
// tell backend tips apart.
var annualCheck = model.Tip{
	Icon:        "🗓️",
	Title:       "Annual Service Check",
	Description: "Book a technician visit once a year to inspect seals, hoses and electrical connections.",
	Urgency:     model.UrgencyLow,
}

func (s *Server) handleTips(w http.ResponseWriter, r *http.Request) {
	appliance := chi.URLParam(r, "appliance")
	if _, ok := model.LookupAppliance(appliance); !ok {
		s.writeDetail(w, http.StatusNotFound, "Unknown appliance.")
		return
	}
	out := append(tips.Static(appliance, r.URL.Query().Get("brand")), annualCheck)
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	n := s.data.clearHistory(userFromContext(r.Context()).ID)
	s.log.Info().Int("sessions", n).Msg("history cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecentSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.data.recentSessions(userFromContext(r.Context()).ID, recentSessionLimit)
	out := make([]map[string]any, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, map[string]any{
			"id":            sess.ID,
			"session_name":  sess.Title,
			"appliance":     sess.Appliance,
			"company":       sess.Brand,
			"message_count": len(sess.records),
			"created_at":    sess.CreatedAt,
			"updated_at":    sess.LastActivity,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDetail(w, http.StatusNotFound, errSessionNotFound.Error())
		return
	}
	records, err := s.data.sessionRecords(userFromContext(r.Context()).ID, id)
	if err != nil {
		s.writeDetail(w, http.StatusNotFound, err.Error())
		return
	}
	out := make([]recordJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, recordJSON(rec))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on addr and blocks until Shutdown.
func (s *Server) Start(addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("devserver listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.log.Info().Msg("devserver shutting down")
	return s.httpServer.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("write response")
	}
}

func (s *Server) writeDetail(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}
