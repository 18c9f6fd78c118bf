// Package fetch provides HTTP GET with bounded retry and HTML page retrieval.
// Registry and metadata lookups go through Client; the CLI uses URL and
// WithBrowser to obtain a feed document.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/jonathan/snappy-feed/internal/logging"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; SnappyFeed/1.0)"

// DefaultRetryAttempts is the total number of attempts made by Client.
const DefaultRetryAttempts = 3

// DefaultRetryDelay is the fixed pause between attempts.
const DefaultRetryDelay = time.Second

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout       time.Duration
	UserAgent     string
	Headers       map[string]string
	RetryAttempts int
	RetryDelay    time.Duration // zero retries immediately
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:       DefaultTimeout,
		UserAgent:     DefaultUserAgent,
		RetryAttempts: DefaultRetryAttempts,
		RetryDelay:    DefaultRetryDelay,
	}
}

func (o *Options) withDefaults() *Options {
	out := DefaultOptions()
	if o == nil {
		return out
	}
	if o.Timeout > 0 {
		out.Timeout = o.Timeout
	}
	if o.UserAgent != "" {
		out.UserAgent = o.UserAgent
	}
	if o.RetryAttempts > 0 {
		out.RetryAttempts = o.RetryAttempts
	}
	if o.RetryDelay >= 0 {
		out.RetryDelay = o.RetryDelay
	}
	out.Headers = o.Headers
	return out
}

// Client performs GET requests, retrying every failure a fixed number of
// times with a fixed delay between attempts.
type Client struct {
	http    *http.Client
	options *Options
	logger  *zap.Logger
	timer   backoff.Timer // nil uses a real timer
}

// NewClient creates a retrying client. A nil opts uses DefaultOptions.
func NewClient(opts *Options, logger *zap.Logger) *Client {
	opts = opts.withDefaults()
	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		options: opts,
		logger:  logging.Component(logger, "http"),
	}
}

// GetJSON fetches urlStr and decodes the JSON body into out.
// Transport failures, non-2xx statuses and undecodable bodies are all
// retried; after the last attempt the last error is returned.
func (c *Client) GetJSON(ctx context.Context, urlStr string, out any) error {
	return c.retry(ctx, urlStr, func() error {
		body, err := c.get(ctx, urlStr)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return &Error{URL: urlStr, Message: "failed to decode JSON", Cause: err}
		}
		return nil
	})
}

// GetBytes fetches urlStr with the same retry contract as GetJSON and
// returns the raw body.
func (c *Client) GetBytes(ctx context.Context, urlStr string) ([]byte, error) {
	var body []byte
	err := c.retry(ctx, urlStr, func() error {
		b, err := c.get(ctx, urlStr)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) retry(ctx context.Context, urlStr string, fn func() error) error {
	attempts := c.options.RetryAttempts
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.options.RetryDelay), uint64(attempts-1)),
		ctx,
	)

	attempt := 0
	op := func() error {
		attempt++
		err := fn()
		if err != nil {
			c.logger.Warn("request attempt failed",
				zap.String("url", urlStr),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Error(err),
			)
		}
		return err
	}
	notify := func(_ error, next time.Duration) {
		c.logger.Debug("retrying request", zap.String("url", urlStr), zap.Duration("delay", next))
	}

	err := backoff.RetryNotifyWithTimer(op, policy, notify, c.timer)
	if err != nil && ctx.Err() != nil {
		return &Error{URL: urlStr, Message: "retry cancelled", Cause: ctx.Err()}
	}
	return err
}

func (c *Client) get(ctx context.Context, urlStr string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.options.UserAgent)
	req.Header.Set("Accept", "application/json")
	for key, value := range c.options.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}
	return body, nil
}

// URL retrieves HTML content from a URL in a single attempt.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	opts = opts.withDefaults()

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	client := &http.Client{
		Timeout: opts.Timeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to create request",
			Cause:   err,
		}
	}

	req.Header.Set("User-Agent", opts.UserAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to read response body",
			Cause:   err,
		}
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode != http.StatusOK {
		return result, &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	return result, nil
}
