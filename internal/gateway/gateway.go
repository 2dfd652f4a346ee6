// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gateway is the single choke point for outbound calls to external
// knowledge and search services. It enforces sliding-window rate limits,
// response caching with TTL, and a bounded retry policy, transparently to
// the services built on top of it.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/enrich-engine/pkg/types"
)

// Request describes one outbound HTTP call.
type Request struct {
	// Method defaults to GET.
	Method string

	// URL is the endpoint without query parameters.
	URL string

	// Params is appended to the URL as the query string.
	Params url.Values

	// Form, when set, is sent urlencoded as the request body.
	Form url.Values

	// Header holds extra request headers.
	Header http.Header
}

// TransportError reports a network failure or non-2xx status that
// persisted through the retry budget.
type TransportError struct {
	Status   int
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("http %d after %d attempts", e.Status, e.Attempts)
	}
	return fmt.Sprintf("transport failure after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrMalformedResponse marks an upstream body that could not be decoded.
// It indicates a contract error and is never retried.
var ErrMalformedResponse = errors.New("malformed upstream response")

// Gateway mediates outbound calls under rate limits, caching, and retry
// policy. Construct one instance per process and inject it into the
// services that need it; its limiter and cache are the only state shared
// across concurrently executing research sessions.
type Gateway struct {
	cfg     types.GatewayConfig
	client  *http.Client
	limiter *Limiter
	cache   Cache
	w       io.Writer
}

// New constructs a Gateway from cfg, applying defaults for unset fields.
// Warnings and retry notices are written to w.
func New(cfg types.GatewayConfig, w io.Writer) (*Gateway, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "enrich-engine/0.1"
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = 30
	}
	if cfg.RequestsPerHour == 0 {
		cfg.RequestsPerHour = 500
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if w == nil {
		w = io.Discard
	}

	var cache Cache
	if cfg.CachePath != "" {
		sc, err := NewSQLCache(cfg.CachePath)
		if err != nil {
			return nil, err
		}
		cache = sc
	} else {
		cache = NewMemCache()
	}

	return &Gateway{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: NewLimiter(cfg.RequestsPerMinute, cfg.RequestsPerHour),
		cache:   cache,
		w:       w,
	}, nil
}

// Close releases the cache backend when it holds external resources.
func (g *Gateway) Close() error {
	if c, ok := g.cache.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Acquire blocks until the rate limiter admits a new request.
func (g *Gateway) Acquire(ctx context.Context) error {
	return g.limiter.Acquire(ctx)
}

// CacheGet returns the cached value for key, when present and unexpired.
func (g *Gateway) CacheGet(key string) ([]byte, bool) {
	return g.cache.Get(key)
}

// CacheSet stores value under key using the configured default TTL.
func (g *Gateway) CacheSet(key string, value []byte) {
	g.cache.Set(key, value, g.cfg.CacheTTL)
}

// Fetch performs the request under rate limiting and the configured
// timeout. Transport failures and non-2xx statuses are retried up to
// MaxRetries with the configured delay policy; after exhaustion a
// *TransportError is returned. The response body is returned on success.
func (g *Gateway) Fetch(ctx context.Context, req Request) ([]byte, error) {
	var lastStatus int
	var lastErr error

	attempts := 0
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := g.cfg.RetryDelay
			if g.cfg.ExponentialBackoff {
				delay <<= attempt - 1
			}
			fmt.Fprintf(g.w, "warning: request failed (attempt %d/%d), retrying in %v\n",
				attempt, g.cfg.MaxRetries, delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := g.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		attempts++

		body, status, err := g.do(ctx, req)
		if err != nil {
			lastErr = err
			lastStatus = 0
			continue
		}
		if status < 200 || status > 299 {
			lastStatus = status
			lastErr = nil
			continue
		}
		return body, nil
	}

	return nil, &TransportError{Status: lastStatus, Attempts: attempts, Err: lastErr}
}

// FetchJSON fetches the request and decodes the body into v. A body that
// fails to decode returns ErrMalformedResponse without further retries.
func (g *Gateway) FetchJSON(ctx context.Context, req Request, v any) error {
	body, err := g.Fetch(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func (g *Gateway) do(ctx context.Context, req Request) ([]byte, int, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	endpoint := req.URL
	if len(req.Params) > 0 {
		endpoint += "?" + req.Params.Encode()
	}

	var body io.Reader
	if len(req.Form) > 0 {
		body = strings.NewReader(req.Form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("User-Agent", g.cfg.UserAgent)
	if len(req.Form) > 0 {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return data, resp.StatusCode, nil
}
