// Package docapi is the HTTP client for the remote document service.
//
// Every call is a single best-effort attempt: no retry and no caching.
// Failures come back as *NetworkError, *ServerError or *DecodeError.
package docapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"docexplorer/internal/metrics"
)

// Client talks to the document service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

// Config holds client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	AuthToken string
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Transport http.RoundTripper // defaults to http.DefaultTransport
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Transport == nil {
		cfg.Transport = http.DefaultTransport
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &loggingTransport{
				next:    cfg.Transport,
				log:     cfg.Logger,
				metrics: cfg.Metrics,
			},
		},
		authToken: cfg.AuthToken,
	}
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPClient returns the underlying client so downloads share its transport.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

func (c *Client) newRequest(ctx context.Context, endpoint, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(withEndpoint(ctx, endpoint), method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	return req, nil
}

// do sends req and returns the response only for 2xx statuses.
// The caller closes the body.
func (c *Client) do(op string, req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &ServerError{Op: op, Status: resp.StatusCode, Message: readMessage(resp.Body)}
	}
	return resp, nil
}

// readMessage pulls {message} or {error} out of a response body.
func readMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var m messageDTO
	if json.Unmarshal(data, &m) != nil {
		return ""
	}
	if m.Message != "" {
		return m.Message
	}
	return m.Error
}

func decodeJSON(op string, r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return &DecodeError{Op: op, Err: fmt.Errorf("truncated body: %w", err)}
		}
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}
