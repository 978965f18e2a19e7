// Package fsclient is the local-filesystem origin client (C4): ENOENT
// maps to origin.NotFound, any other I/O error to origin.Error.
package fsclient

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/livesense-inc/fanlin-go/internal/origin"
)

// Client reads assets from the local filesystem. Stateless; safe to
// share across requests.
type Client struct{}

// New constructs a Client.
func New() *Client { return &Client{} }

// Fetch implements origin.Client. locator must be a string filesystem
// path (as built by package locator for file origins).
func (c *Client) Fetch(_ context.Context, loc any) origin.Outcome {
	path, ok := loc.(string)
	if !ok {
		return origin.Error(fmt.Errorf("fsclient: locator is not a string (%T)", loc))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return origin.NotFound()
		}
		return origin.Error(fmt.Errorf("fsclient: read %q: %w", path, err))
	}
	return origin.Bytes(data)
}
