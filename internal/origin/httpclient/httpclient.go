// Package httpclient is the remote-HTTP origin client (C4): a 404 maps
// to origin.NotFound, other non-success statuses to origin.Error.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/livesense-inc/fanlin-go/internal/origin"
)

// Config mirrors the config file's client.web block.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Client fetches assets from remote HTTP(S) origins.
type Client struct {
	http      *http.Client
	userAgent string
}

// New constructs a Client once at startup with the given user-agent and
// request timeout.
func New(cfg Config) *Client {
	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
	}
}

// Fetch implements origin.Client. locator must be a string URL (as built
// by package locator for http/https origins).
func (c *Client) Fetch(ctx context.Context, loc any) origin.Outcome {
	url, ok := loc.(string)
	if !ok {
		return origin.Error(fmt.Errorf("httpclient: locator is not a string (%T)", loc))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return origin.Error(fmt.Errorf("httpclient: build request: %w", err))
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return origin.Error(fmt.Errorf("httpclient: request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return origin.NotFound()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return origin.Error(fmt.Errorf("httpclient: origin returned status %d", resp.StatusCode))
	}

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return origin.Error(fmt.Errorf("httpclient: read body: %w", err))
	}
	return origin.Bytes(buf.Bytes())
}
