// Package remote provides an HTTP invoker for JSON request/response
// APIs shaped like the OpenAI REST surface. Logical endpoint names map
// to URL paths; payloads are posted as JSON and responses decoded into
// generic maps.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cozodb/openai-multi-client/request"
)

// DefaultBaseURL targets the public OpenAI API.
const DefaultBaseURL = "https://api.openai.com"

// defaultPaths maps the well-known logical endpoints to their URL
// paths. WithPath overrides or extends the map per client.
var defaultPaths = map[string]string{
	"completions": "/v1/completions",
	"chats":       "/v1/chat/completions",
	"embeddings":  "/v1/embeddings",
}

// APIError is returned for non-2xx responses. Message carries the
// server's error.message field when the body is a structured error.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote: %s returned %d", e.Endpoint, e.StatusCode)
}

// Client is an HTTP implementation of request.Invoker.
type Client struct {
	baseURL string
	token   string
	paths   map[string]string
	httpc   *http.Client
}

var _ request.Invoker = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// WithPath maps a logical endpoint name to a URL path, overriding or
// extending the defaults.
func WithPath(endpoint, path string) Option {
	return func(c *Client) { c.paths[endpoint] = path }
}

// NewClient builds an HTTP invoker. With no options it targets the
// public OpenAI API with a 60s request timeout and no credentials.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		paths:   make(map[string]string, len(defaultPaths)),
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
	for k, v := range defaultPaths {
		c.paths[k] = v
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke posts payload as JSON to the path mapped from endpoint and
// decodes the JSON response. Unknown endpoints and non-2xx statuses are
// errors; the caller's retry policy decides what to do with them.
func (c *Client) Invoke(ctx context.Context, endpoint string, payload map[string]any) (any, error) {
	path, ok := c.paths[endpoint]
	if !ok {
		return nil, fmt.Errorf("remote: unknown endpoint %q", endpoint)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("remote: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Message:    errorMessage(raw),
		}
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("remote: decode response: %w", err)
	}
	return decoded, nil
}

// errorMessage extracts error.message from a structured error body.
func errorMessage(raw []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return envelope.Error.Message
}
