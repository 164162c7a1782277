// Package api implements the rate-limited access layer for the remote
// tender service: a retrying HTTP client, the paged listing crawl and the
// per-record fetchers built on top of it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mzielin/tender-harvester/internal/telemetry"
)

const (
	backoffBase = 250 * time.Millisecond
	backoffMax  = 5 * time.Second
)

// ClientConfig captures the parameters of the API client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	RateLimit  float64
	Timeout    time.Duration
	MaxRetries int
}

// Client is the single choke point for all outbound calls. It self-paces via
// a Pacer and retries 429/5xx responses with exponential backoff. Two
// independent clients do not share pacing state.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	pacer      Pacer
	logger     *zap.Logger
}

// NewClient builds a Client from config.
func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: retries,
		pacer:      NewIntervalPacer(cfg.RateLimit),
		logger:     logger,
	}, nil
}

// Do executes one request against the API. Endpoint may be a path relative
// to the base URL or an absolute URL (attachment locators usually are).
// A retryable status class that exhausts the retry budget yields a
// *TransientError; every other failure yields a *RequestError. The caller
// owns the response body.
func (c *Client) Do(ctx context.Context, method, endpoint string, params url.Values, body []byte) (*http.Response, error) {
	target, err := c.requestURL(endpoint, params)
	if err != nil {
		return nil, &RequestError{Method: method, URL: endpoint, Err: err}
	}

	attempts := c.maxRetries + 1
	var lastStatus int
	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, &RequestError{Method: method, URL: target, Err: err}
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &RequestError{Method: method, URL: target, Err: err}
		}
		telemetry.ObserveRequest(method, resp.StatusCode)

		if retryable(resp.StatusCode) {
			lastStatus = resp.StatusCode
			resp.Body.Close()
			if attempt == attempts-1 {
				break
			}
			telemetry.ObserveRetry()
			c.logger.Warn("retrying request",
				zap.String("url", target),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, fmt.Errorf("backoff: %w", err)
			}
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, &RequestError{Method: method, URL: target, StatusCode: resp.StatusCode}
		}
		return resp, nil
	}

	return nil, &TransientError{Method: method, URL: target, StatusCode: lastStatus, Attempts: attempts}
}

// GetJSON executes a GET and returns the raw response body for shape-aware
// decoding by the caller.
func (c *Client) GetJSON(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	data, err := c.GetBytes(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// GetBytes executes a GET and returns the body verbatim, for attachment
// downloads.
func (c *Client) GetBytes(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	resp, err := c.Do(ctx, http.MethodGet, endpoint, params, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return data, nil
}

func (c *Client) requestURL(endpoint string, params url.Values) (string, error) {
	raw := endpoint
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		if !strings.HasPrefix(raw, "/") {
			raw = "/" + raw
		}
		raw = c.baseURL + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse request URL: %w", err)
	}
	if len(params) > 0 {
		q := u.Query()
		for key, values := range params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := backoffBase << uint(attempt)
	if delay > backoffMax {
		delay = backoffMax
	}
	// Jitter: 0.5x to 1.5x of the computed delay.
	jittered := time.Duration(float64(delay) * (0.5 + rand.Float64()))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(jittered):
		return nil
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
