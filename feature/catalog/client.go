package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StatusError is a non-transient HTTP failure (4xx). It is returned
// immediately without retrying.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s: %s", e.Code, e.Path, e.Body)
}

// RequestError is the terminal failure after exhausting all retry attempts.
// Callers must treat it as fatal to the current fetch operation.
type RequestError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("failed to fetch %s after %d attempts: %v", e.Path, e.Attempts, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Client is a rate-limited, retrying HTTP client for the Open Library API.
// The rate limit and retry state are per instance; a Client is not safe for
// concurrent use.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	interval    time.Duration
	backoffBase time.Duration
	maxRetries  int
	logger      *zap.Logger

	// lastRequest is the completion time of the most recent request.
	lastRequest time.Time
}

// NewClient creates a catalog client from configuration.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 10
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoff := time.Duration(cfg.BackoffMS) * time.Millisecond
	if cfg.BackoffMS <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: time.Duration(timeout) * time.Second},
		interval:    time.Duration(cfg.RateLimitMS) * time.Millisecond,
		backoffBase: backoff,
		maxRetries:  maxRetries,
		logger:      logger,
	}
}

// trimKey strips surrounding path separators from an opaque identifier and
// reduces it to its last path segment, so "/works/OL45883W/" becomes
// "OL45883W".
func trimKey(key string) string {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if i := strings.LastIndex(key, "/"); i >= 0 {
		key = key[i+1:]
	}
	return key
}

// SearchAuthors searches the catalog for authors matching the display name.
func (c *Client) SearchAuthors(ctx context.Context, name string, limit int) (*AuthorSearchResponse, error) {
	params := url.Values{}
	params.Set("q", name)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/search/authors.json", params)
	if err != nil {
		return nil, err
	}
	var resp AuthorSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding author search response: %w", err)
	}
	return &resp, nil
}

// AuthorWorks lists works for an author, paged by limit and offset.
func (c *Client) AuthorWorks(ctx context.Context, authorKey string, limit, offset int) (*WorkList, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	body, err := c.get(ctx, fmt.Sprintf("/authors/%s/works.json", trimKey(authorKey)), params)
	if err != nil {
		return nil, err
	}
	var list WorkList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decoding work list: %w", err)
	}
	return &list, nil
}

// WorkDetail fetches the raw detail payload for a work. The payload is
// returned unparsed so the caller can retain it for audit and fall back to
// lenient parsing.
func (c *Client) WorkDetail(ctx context.Context, workKey string) (json.RawMessage, error) {
	return c.get(ctx, fmt.Sprintf("/works/%s.json", trimKey(workKey)), nil)
}

// get performs a GET with rate limiting and bounded linear-backoff retries.
// 5xx responses and transport errors are retried; 4xx fails immediately.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.pace(ctx); err != nil {
			return nil, err
		}

		c.logger.Debug("requesting catalog",
			zap.String("url", target),
			zap.Int("attempt", attempt))

		body, retryable, err := c.do(ctx, target, path)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
		c.logger.Warn("catalog request failed",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < c.maxRetries {
			backoff := time.Duration(attempt) * c.backoffBase
			c.logger.Debug("backing off before retry", zap.Duration("backoff", backoff))
			if err := sleepContext(ctx, backoff); err != nil {
				return nil, err
			}
		}
	}

	return nil, &RequestError{Path: path, Attempts: c.maxRetries, Err: lastErr}
}

// do issues a single request. The second return value reports whether the
// failure is transient and worth retrying.
func (c *Client) do(ctx context.Context, target, path string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.httpClient.Do(req)
	c.lastRequest = time.Now()
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, err
		}
		return data, false, nil
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error %d", resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 400))
		return nil, false, &StatusError{Path: path, Code: resp.StatusCode, Body: string(snippet)}
	}
}

// pace sleeps out the remainder of the configured interval since the last
// request completed.
func (c *Client) pace(ctx context.Context) error {
	if c.interval <= 0 || c.lastRequest.IsZero() {
		return nil
	}
	remaining := c.interval - time.Since(c.lastRequest)
	if remaining <= 0 {
		return nil
	}
	c.logger.Debug("rate limiting", zap.Duration("sleep", remaining))
	return sleepContext(ctx, remaining)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
