// Package rest is the shared HTTP plumbing of the remote adapters.
package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/davidiaz1251/apostolV2/internal/domain"
)

const (
	defaultTimeout = 15 * time.Second
	maxRetries     = 3
	baseRetryDelay = 500 * time.Millisecond
)

// Options configures a Client.
type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client // nil creates one with Timeout
	Online     func() bool  // nil means always online
	Logger     *slog.Logger
	Headers    map[string]string
	RetryDelay time.Duration // first backoff interval, 0 uses the default
}

// Client performs JSON requests against one base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	online     func() bool
	headers    map[string]string
	retryDelay time.Duration
	logger     *slog.Logger
}

func NewClient(baseURL string, opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = baseRetryDelay
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		online:     opts.Online,
		headers:    opts.Headers,
		retryDelay: opts.RetryDelay,
		logger:     opts.Logger,
	}
}

// HTTPClient exposes the underlying client.
func (c *Client) HTTPClient() *http.Client { return c.httpClient }

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Do performs a request and returns the response body of a 200 reply.
// 5xx replies are retried with exponential backoff; 401/403 map to
// domain.ErrAuthFailed and a known-offline client fails with domain.ErrOffline
// before touching the network.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	if c.online != nil && !c.online() {
		return nil, domain.ErrOffline
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = reqURL + "?" + query.Encode()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryDelay
	policy.MaxElapsedTime = 0

	attempt := 0
	op := func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		c.logger.Debug("remote request", "method", method, "path", path, "attempt", attempt)
		attempt++

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("remote request failed", "error", err, "path", path)
			return nil, backoff.Permanent(fmt.Errorf("request failed: %w", err))
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to read response: %w", err))
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, backoff.Permanent(domain.ErrAuthFailed)
		case resp.StatusCode == http.StatusNotFound:
			return nil, backoff.Permanent(domain.ErrNotFound)
		case resp.StatusCode >= 500:
			c.logger.Warn("remote server error, will retry",
				"status", resp.StatusCode,
				"attempt", attempt,
				"maxRetries", maxRetries,
				"path", path,
			)
			return nil, fmt.Errorf("server error: %d - %s", resp.StatusCode, truncate(respBody, 200))
		case resp.StatusCode != http.StatusOK:
			c.logger.Error("remote request error", "status", resp.StatusCode, "body", truncate(respBody, 200))
			return nil, backoff.Permanent(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
		}
		return respBody, nil
	}

	data, err := backoff.RetryWithData(op, backoff.WithContext(backoff.WithMaxRetries(policy, maxRetries), ctx))
	if err != nil {
		return nil, err
	}
	return data, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
