package client

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/pollhttp/transport"
)

// Client talks to one fixed host:port and owns the connection to it.
// Every [Client.Get] uses a fresh connection: requests are sent with
// "Connection: close".
type Client struct {
	host      string
	port      int
	conn      transport.Conn
	connected bool
	used      bool
	lastErr   error

	poll   time.Duration
	tracer trace.Tracer
	logger *slog.Logger
}

// New builds a Client for host:port and tries to connect right away. A
// failed connect is not an error: Get retries it once.
func New(ctx context.Context, host string, port int, optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	c := &Client{
		host:   host,
		port:   port,
		poll:   defaultPollInterval,
		tracer: noop.NewTracerProvider().Tracer("no-op tracer"),
		logger: slog.Default(),
	}

	factory := transport.Factory(transport.DefaultFactory)
	if opts.factory != nil {
		factory = opts.factory
	}
	c.conn = factory()

	if opts.pollInterval != nil {
		c.poll = *opts.pollInterval
	}
	if opts.tracer != nil {
		c.tracer = opts.tracer
	}
	if opts.logger != nil {
		c.logger = opts.logger
	}

	c.connect(ctx)

	return c, nil
}

// Host returns the host the Client talks to.
func (c *Client) Host() string { return c.host }

// Port returns the port the Client talks to.
func (c *Client) Port() int { return c.port }

// Get sends "GET path" and returns the response once its headers are parsed.
//
// If there is no live connection, or the current one already carried a
// request, Get makes exactly one connect attempt. If that fails the returned
// Response is already done, reports status 400, and its Err wraps
// [ErrNotConnected].
//
// Header parsing blocks until the blank line arrives, the connection drops,
// or ctx is done.
func (c *Client) Get(ctx context.Context, path string) *Response {
	ctx, span := c.tracer.Start(ctx, "client.get")
	defer span.End()

	span.SetAttributes(
		attribute.String("host", c.host),
		attribute.Int("port", c.port),
		attribute.String("path", path),
	)

	if !c.connected || c.used || !c.conn.Connected() {
		if !c.connect(ctx) {
			err := fmt.Errorf("%w: %s:%d: %w", ErrNotConnected, c.host, c.port, c.lastErr)
			span.SetStatus(codes.Error, err.Error())
			return failedResponse(c.conn, err)
		}
	}
	c.used = true

	host := c.host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	req := fmt.Sprintf("GET %s HTTP/1.1\r\nHost: %s\r\nConnection: close\r\n\r\n", path, host)
	if _, err := c.conn.Write([]byte(req)); err != nil {
		err = fmt.Errorf("writing request: %w", err)
		span.SetStatus(codes.Error, err.Error())
		return failedResponse(c.conn, err)
	}

	resp := newResponse(ctx, c.conn, c.poll)

	span.SetAttributes(
		attribute.Int("status", resp.StatusCode()),
		attribute.Int64("content_length", resp.ContentLength()),
	)
	if err := resp.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
	}

	c.logger.Debug("response headers parsed", "host", c.host, "path", path, "status", resp.StatusCode(), "contentLength", resp.ContentLength())

	return resp
}

// Close closes the owned connection.
func (c *Client) Close() error {
	c.connected = false
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("closing connection: %w", err)
	}

	return nil
}

// connect (re)opens the connection, recording the outcome.
func (c *Client) connect(ctx context.Context) bool {
	if err := c.conn.Connect(ctx, c.host, c.port); err != nil {
		c.logger.Warn("connect failed", "host", c.host, "port", c.port, "error", err)
		c.connected = false
		c.lastErr = err
		return false
	}

	c.connected = true
	c.used = false
	c.lastErr = nil

	return true
}
