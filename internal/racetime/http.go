// Raceroom - Live Race Room Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/raceroom

/*
http.go - REST Request Helpers

Every REST call of the client goes through restClient.do:
  - Rate Limiting: waits on the shared token bucket (x/time/rate) when configured
  - Circuit Breaking: runs inside the sony/gobreaker breaker when enabled
  - Authentication: Authorization: Bearer header when a token is given
  - Body Capture: the response body is read fully and the connection released

Calls are never retried. Status handling is left to the caller.
*/

//nolint:staticcheck // File documentation, not package doc
package racetime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/raceroom/internal/metrics"
)

// maxBodyBytes bounds the body read from any REST response.
const maxBodyBytes = 4 << 20

// restResponse is a fully read REST response.
type restResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// bodyText returns the body for error messages.
func (r *restResponse) bodyText() string {
	return strings.TrimSpace(string(r.Body))
}

// requestConfig holds configuration for building HTTP requests
type requestConfig struct {
	operation string // metrics label: "race_data", "category_data", "startrace"
	method    string
	path      string
	form      url.Values // encoded as the request body when set
	token     string
}

type restClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter                            // nil = unlimited
	breaker *gobreaker.CircuitBreaker[*restResponse] // nil = disabled
}

func (c *restClient) do(ctx context.Context, cfg requestConfig) (*restResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s rate limit wait: %w", cfg.operation, err)
		}
	}
	return executeBreaker(c.breaker, func() (*restResponse, error) {
		return c.roundTrip(ctx, cfg)
	})
}

func (c *restClient) roundTrip(ctx context.Context, cfg requestConfig) (*restResponse, error) {
	reqURL := c.baseURL + cfg.path

	var body io.Reader = http.NoBody
	if cfg.form != nil {
		body = strings.NewReader(cfg.form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, cfg.method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", cfg.operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if cfg.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cfg.token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordRESTRequest(cfg.operation, 0, time.Since(start))
		return nil, fmt.Errorf("%s request failed: %w", cfg.operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.RecordRESTRequest(cfg.operation, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", cfg.operation, err)
	}

	return &restResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// detach returns a context with the values of ctx but none of its
// cancellation, bounded by timeout when positive. Work shared by several
// callers runs under it so one caller giving up does not fail the others.
func detach(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

// isContextErr reports whether err is a cancellation or deadline.
func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// newRESTClient builds the REST helper. ratePerSecond <= 0 disables limiting.
func newRESTClient(baseURL string, hc *http.Client, ratePerSecond float64, burst int, breaker bool) *restClient {
	c := &restClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
	if ratePerSecond > 0 {
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	}
	if breaker {
		c.breaker = newRESTBreaker(restBreakerName)
	}
	return c
}
