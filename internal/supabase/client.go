// Package supabase talks to a hosted Supabase project: the PostgREST table
// API and the Storage API. Both authenticate with the project's anon key.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultTimeout = 15 * time.Second

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("supabase request failed",
			zap.String("method", req.Method), zap.String("path", req.URL.Path), zap.Error(err))
		return nil, fmt.Errorf("supabase request failed: %w", err)
	}
	c.log.Debug("supabase request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))
	return resp, nil
}

// apiError is the error body shared by PostgREST and Storage.
type apiError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
	Error      string `json:"error"`
	StatusCode string `json:"statusCode"`
}

func readAPIError(resp *http.Response) apiError {
	var e apiError
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(body, &e); err != nil || (e.Message == "" && e.Error == "") {
		e.Message = strings.TrimSpace(string(body))
	}
	if e.Message == "" {
		e.Message = e.Error
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
