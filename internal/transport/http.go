// Package transport fetches upstream JSON payloads and hands them over as
// generic key-mapping values.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 20

// Fetcher returns a decoded JSON document for a URL.
type Fetcher interface {
	GetJSON(ctx context.Context, url string) (any, error)
}

// Options tune the HTTP client.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	UserAgent  string
}

// DefaultOptions match the upstream APIs' typical latency.
func DefaultOptions() Options {
	return Options{
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		RetryDelay: 250 * time.Millisecond,
		UserAgent:  "yieldScope/1.0",
	}
}

// StatusError reports a non-200 response.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s: %s", e.Status, e.URL, e.Body)
}

// HTTPClient is a JSON GET client with retry.
type HTTPClient struct {
	client *http.Client
	opts   Options
	logger *zap.Logger
}

func NewHTTPClient(opts Options, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	return &HTTPClient{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:   opts,
		logger: logger,
	}
}

// GetJSON fetches url and decodes the body with numbers kept as json.Number.
func (c *HTTPClient) GetJSON(ctx context.Context, url string) (any, error) {
	var out any
	err := withRetry(ctx, c.opts.MaxRetries, c.opts.RetryDelay, func(ctx context.Context) error {
		body, err := c.get(ctx, url)
		if err != nil {
			c.logger.Debug("http get failed", zap.String("url", url), zap.Error(err))
			return err
		}
		decoded, err := Decode(body)
		if err != nil {
			return fmt.Errorf("%w: decode %s: %v", errPermanent, url, err)
		}
		out = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", errPermanent, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{URL: url, Status: resp.StatusCode, Body: truncate(string(body), 200)}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %w", errPermanent, statusErr)
		}
		return nil, statusErr
	}
	return body, nil
}

// Decode parses a JSON document into generic values, keeping numbers exact.
func Decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
