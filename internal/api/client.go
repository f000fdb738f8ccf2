// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jeranaias/applianceai-tui/internal/logging"
	"github.com/jeranaias/applianceai-tui/internal/storage"
)

// Configuration constants for the backend client.
const (
	// DefaultBaseURL is the backend origin used when none is configured.
	DefaultBaseURL = "http://localhost:8000/api"

	// DefaultTimeout is the ceiling for a single request.
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 4 * 1024 * 1024

	// RequestIDHeader carries a per-request uuid.
	RequestIDHeader = "X-Request-ID"

	userAgent = "applianceai-tui/1.0"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration

	// RateLimit caps requests per second; 0 disables the throttle.
	RateLimit float64
	RateBurst int

	// Tokens is the durable store the bearer token is read from. Required.
	Tokens storage.Store

	// HTTPClient overrides the transport. Its Timeout is replaced by Timeout.
	HTTPClient *http.Client
}

// Client talks to the appliance-support backend. It is safe for concurrent
// use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     storage.Store
	limiter    *rate.Limiter
	log        zerolog.Logger

	mu             sync.RWMutex
	onUnauthorized func()
}

// New creates a client from opts.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := &http.Client{Timeout: timeout}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		copied.Timeout = timeout
		hc = &copied
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = storage.NewMemoryStore()
	}

	c := &Client{
		baseURL:    base,
		httpClient: hc,
		tokens:     tokens,
		log:        logging.For("api"),
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Tokens returns the durable store the client reads tokens from.
func (c *Client) Tokens() storage.Store {
	return c.tokens
}

// OnUnauthorized registers fn to run once for every 401 response, after the
// stored tokens are removed. A later registration replaces an earlier one.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// do performs one request. in is JSON-encoded when non-nil; out is decoded
// from a 2xx body when non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	c.setHeaders(ctx, req, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		c.log.Warn().Str("request_id", requestID).Str("method", method).Str("path", path).
			Dur("duration", time.Since(start)).Err(err).Msg("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().Str("request_id", requestID).Str("method", method).Str("path", path).
		Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("response")

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized()
	}

	respBody, err := readResponse(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return handleErrorResponse(resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// setHeaders attaches the stored bearer token when one exists.
func (c *Client) setHeaders(ctx context.Context, req *http.Request, requestID string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(RequestIDHeader, requestID)

	token, ok, err := c.tokens.Get(ctx, storage.KeyToken)
	if err != nil {
		c.log.Warn().Err(err).Msg("could not read stored token")
		return
	}
	if ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// handleUnauthorized clears the stored tokens and fires the handler.
func (c *Client) handleUnauthorized() {
	// The request context may already be done; removal must still happen.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.tokens.Remove(ctx, storage.KeyToken, storage.KeyRefreshToken); err != nil {
		c.log.Error().Err(err).Msg("failed to clear stored tokens")
	}

	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// readResponse reads the body through a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, MaxResponseSize)
	}
	return body, nil
}

// IsAuthError reports whether err came from a 401.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
