// Package upstream performs the single outbound call behind each proxy request.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pixgallery/pkg/log"
	"pixgallery/pkg/normalize"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	// DefaultBaseURL is the hosting service API root.
	DefaultBaseURL = "https://pixeldrain.com/api"
	// MaxBodyBytes caps how much of an upstream body is buffered.
	MaxBodyBytes = 32 << 20
)

// Call describes one upstream request.
type Call struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string
	// Credential is attached as Basic auth when non-empty. Without it the call
	// still goes out and the upstream decides.
	Credential string
}

// Client sends calls to the upstream API and buffers the answers.
type Client struct {
	baseURL *url.URL
	client  *retryablehttp.Client
}

// New creates a client for the given API root.
func New(baseURL string, retryMax int, retryWaitMin, retryWaitMax, requestTimeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrInvalidPath, baseURL)
	}

	client := CreateRetryableClient(retryMax, retryWaitMin, retryWaitMax)
	client.HTTPClient.Timeout = requestTimeout

	return &Client{baseURL: parsed, client: client}, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Resolve joins an upstream path (optionally carrying a query) to the API root.
func (c *Client) Resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" || strings.Contains(path, "://") || strings.HasPrefix(path, "//") || strings.Contains(path, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}

	resolved := *c.baseURL
	resolved.Path = c.baseURL.Path + ref.Path
	resolved.RawPath = ""
	if ref.RawPath != "" {
		resolved.RawPath = c.baseURL.EscapedPath() + ref.RawPath
	}
	resolved.RawQuery = ref.RawQuery
	return resolved.String(), nil
}

// Do sends the call and reads the whole body once.
func (c *Client) Do(ctx context.Context, call Call) (normalize.Response, error) {
	target, err := c.Resolve(call.Path)
	if err != nil {
		return normalize.Response{}, err
	}

	method := call.Method
	if method == "" {
		method = http.MethodGet
	}

	var body interface{}
	if len(call.Body) > 0 {
		body = call.Body
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return normalize.Response{}, fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	req.Header.Set("Accept", "application/json")
	if len(call.Body) > 0 {
		contentType := call.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}
	if call.Credential != "" {
		req.Header.Set("Authorization", AuthHeader(call.Credential))
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("method", method).Str("path", call.Path).Msg("Upstream request failed")
		return normalize.Response{}, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Str("path", call.Path).Msg("Failed to close upstream response body")
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return normalize.Response{}, fmt.Errorf("%w: reading body: %w", ErrUnreachable, err)
	}
	if len(data) > MaxBodyBytes {
		return normalize.Response{}, ErrBodyTooLarge
	}

	log.Debug().
		Str("method", method).
		Str("path", call.Path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Bool("authenticated", call.Credential != "").
		Int("bytes", len(data)).
		Msg("Upstream call")

	return normalize.Response{
		Status:      resp.StatusCode,
		StatusText:  statusText(resp),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// statusText strips the numeric code off resp.Status ("401 Unauthorized").
func statusText(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// CreateRetryableClient creates the outbound HTTP client. Retries are off unless
// retryMax is positive, and even then only connection failures are retried.
func CreateRetryableClient(retryMax int, retryWaitMin, retryWaitMax time.Duration) *retryablehttp.Client {
	if retryMax < 0 {
		retryMax = 0
	}
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = retryWaitMin
	client.RetryWaitMax = retryWaitMax
	client.Logger = nil
	client.CheckRetry = connectionOnlyRetryPolicy
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client
}

// connectionOnlyRetryPolicy never retries once a response arrived, so upstream
// error statuses reach normalization untouched.
func connectionOnlyRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if resp != nil {
		return false, nil
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return true, nil //nolint:nilerr // retryablehttp reports the final error
	}
	return false, nil
}
