// Package client is the typed HTTP collaborator used by front ends and tools to
// talk to the fanclub API. Every call decodes the {success, message, data}
// envelope; success=false is an error even when the status is 2xx.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fanclub/pkg/apperr"
	"fanclub/pkg/config"
	"fanclub/pkg/logger"
)

// Config holds client configuration.
type Config struct {
	// BaseURL is the API root including the version prefix, e.g. http://localhost:8080/api/v1.
	BaseURL string
	Timeout time.Duration
}

// FromConfig builds a client configuration from the shared service config.
func FromConfig(cfg *config.Config) Config {
	return Config{BaseURL: cfg.APIBaseURL}
}

// Client keeps the session cookie of one signed-in user in its jar.
type Client struct {
	baseURL    string
	httpClient *http.Client
	jar        *sessionJar
	logger     *logger.Logger
}

func New(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client: base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("client: invalid base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	jar, err := newSessionJar()
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout, Jar: jar},
		jar:        jar,
		logger:     log,
	}, nil
}

// ClearSession drops every cookie, e.g. after logout.
func (c *Client) ClearSession() {
	c.jar.clear()
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.doJSON(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	return c.do(ctx, method, path, query, bodyReader, contentType, out)
}

// do sends one request and decodes the envelope's data into out (may be nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return apperr.Network(err, "request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Network(err, "failed to read response")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 400 {
			return apperr.FromStatus(resp.StatusCode, "")
		}
		return apperr.Wrap(apperr.KindInternal, err, "malformed response from %s %s", method, path)
	}
	if !env.Success || resp.StatusCode >= 400 {
		c.logger.Debug("%s %s failed with %d: %s", method, path, resp.StatusCode, env.Message)
		return apperr.FromStatus(resp.StatusCode, env.Message)
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "malformed response from %s %s", method, path)
	}
	return nil
}

func pageQuery(filter string, cursor *string, limit int) url.Values {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	if cursor != nil {
		q.Set("cursor", *cursor)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	return q
}
