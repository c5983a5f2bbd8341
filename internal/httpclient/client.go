// Package httpclient implements the polite, rate-limited, retrying HTTP
// client shared by the government API adapters (L1). Each instance owns its
// own rate budget: a mutex-guarded timestamp of the last outbound request,
// matching the reference embedder's rateLimitedCall idiom.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"governmentreporter/internal/config"
	"governmentreporter/internal/errs"
	"governmentreporter/internal/observability"
)

// Client performs GETs against one government data source, enforcing a
// minimum delay between successive outbound requests and retrying
// transient failures with jitter-free exponential backoff.
type Client struct {
	http       *http.Client
	minDelay   time.Duration
	maxRetries int
	initial    time.Duration
	userAgent  string

	mu       sync.Mutex
	lastCall time.Time
}

// New constructs a Client for one source's rate-limit configuration.
func New(rl config.RateLimitConfig, userAgent string, headers map[string]string) *Client {
	base := observability.WithHeaders(&http.Client{Timeout: 30 * time.Second}, headers)
	base = observability.NewHTTPClient(base)
	return &Client{
		http:       base,
		minDelay:   rl.MinDelay,
		maxRetries: rl.MaxRetries,
		initial:    rl.InitialBackoff,
		userAgent:  userAgent,
	}
}

// Response is the minimal shape callers need from a GET.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Get performs a rate-limited, retrying GET against rawURL with the given
// query parameters, honoring ctx for cancellation/timeout.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errs.New(errs.KindMalformedResponse, fmt.Errorf("parse url: %w", err))
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	op := func() (*Response, error) {
		c.waitForRateLimit()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, backoff.Permanent(errs.New(errs.KindMalformedResponse, err))
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, errs.New(errs.KindTransientTransport, err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errs.New(errs.KindTransientTransport, err)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, errs.New(errs.KindRateLimited, fmt.Errorf("http 429"))
		}
		if resp.StatusCode >= 500 {
			return nil, errs.New(errs.KindTransientTransport, fmt.Errorf("http %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return nil, backoff.Permanent(errs.New(errs.KindPermanentHTTP, fmt.Errorf("http %d", resp.StatusCode)))
		}
		return &Response{Status: resp.StatusCode, Headers: resp.Header, Body: body}, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initial
	bo.Multiplier = 2
	bo.RandomizationFactor = 0

	// maxRetries counts retries after the first attempt.
	maxTries := c.maxRetries + 1
	if maxTries < 1 {
		maxTries = 1
	}
	result, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(maxTries)),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// waitForRateLimit blocks until at least minDelay has elapsed since the
// previous call issued through this client.
func (c *Client) waitForRateLimit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.minDelay <= 0 {
		c.lastCall = time.Now()
		return
	}
	elapsed := time.Since(c.lastCall)
	if elapsed < c.minDelay {
		time.Sleep(c.minDelay - elapsed)
	}
	c.lastCall = time.Now()
}
