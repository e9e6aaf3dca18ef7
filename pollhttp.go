// Package pollhttp exposes builders for the polled HTTP client and the
// download queue.
package pollhttp

import (
	"context"
	"fmt"

	"github.com/adamwoolhether/pollhttp/client"
	"github.com/adamwoolhether/pollhttp/client/download"
)

// NewClient parses rawURL and returns a *Client for its host and port,
// along with the parsed target so the caller can Get its path.
func NewClient(ctx context.Context, rawURL string, opts ...client.Option) (*client.Client, client.Target, error) {
	target, err := client.ParseTarget(rawURL)
	if err != nil {
		return nil, client.Target{}, fmt.Errorf("parsing url: %w", err)
	}

	c, err := client.New(ctx, target.Host, target.Port, opts...)
	if err != nil {
		return nil, client.Target{}, err
	}

	return c, target, nil
}

// NewQueue instantiates a new *download.Queue with the provided options.
// If not specified, downloads go over TCP to the host filesystem.
func NewQueue(opts ...download.QueueOption) (*download.Queue, error) {
	return download.NewQueue(opts...)
}
