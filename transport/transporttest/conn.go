// Package transporttest provides scripted, in-memory implementations of
// [transport.Conn] for tests, in the spirit of net/http/httptest.
//
// A [Network] hands out connections that answer each request through a
// [Handler]. Tests keep references to the connections and can drip-feed
// more bytes or hang up at any point:
//
//	nw := transporttest.NewNetwork(func(req transporttest.Request) transporttest.Reply {
//		return transporttest.Reply{Data: transporttest.HTTP(200, nil, "ok"), Hangup: true}
//	})
//	q, _ := download.New(download.WithConnFactory(nw.Factory))
package transporttest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/adamwoolhether/pollhttp/transport"
)

// ErrRefused is returned by Connect when the network refuses connections.
var ErrRefused = errors.New("connection refused")

// Request is the parsed head of a request written to a [Conn].
type Request struct {
	Host   string
	Port   int
	Method string
	Path   string
	Proto  string
	Header map[string]string
	Raw    string
}

// Reply is what a [Handler] sends back. Hangup closes the peer side after
// Data has been queued.
type Reply struct {
	Data   []byte
	Hangup bool
}

// Handler answers one request.
type Handler func(Request) Reply

// Conn is an in-memory [transport.Conn].
type Conn struct {
	mu       sync.Mutex
	network  *Network
	host     string
	port     int
	open     bool
	hungUp   bool
	replied  bool
	in       []byte
	written  bytes.Buffer
	connects int

	// ConnectErr, when set, makes every Connect fail with it.
	ConnectErr error
}

var _ transport.Conn = (*Conn)(nil)

// NewConn returns a standalone connection with no handler; tests drive it
// with Feed and Hangup.
func NewConn() *Conn {
	return &Conn{}
}

// Connect opens the connection, resetting any previous state.
func (c *Conn) Connect(ctx context.Context, host string, port int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.connects++

	if c.ConnectErr != nil {
		return c.ConnectErr
	}
	if c.network != nil && c.network.refusing() {
		return fmt.Errorf("%s:%d: %w", host, port, ErrRefused)
	}

	c.host = host
	c.port = port
	c.open = true
	c.hungUp = false
	c.replied = false
	c.in = nil
	c.written.Reset()

	return nil
}

// Connected mirrors [transport.TCP]: true while open, or while unread
// bytes remain after the peer hung up.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.open && (!c.hungUp || len(c.in) > 0)
}

// Available returns the number of unread bytes.
func (c *Conn) Available() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return 0
	}

	return len(c.in)
}

// ReadByte takes one unread byte.
func (c *Conn) ReadByte() (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open || len(c.in) == 0 {
		return 0, transport.ErrNoData
	}

	b := c.in[0]
	c.in = c.in[1:]

	return b, nil
}

// Write records p. Once a full request head has been written and the
// connection belongs to a [Network], its handler is invoked once.
func (c *Conn) Write(p []byte) (int, error) {
	c.mu.Lock()
	if !c.open || c.hungUp {
		c.mu.Unlock()
		return 0, transport.ErrNotConnected
	}

	c.written.Write(p)

	var (
		req     Request
		respond bool
	)
	if c.network != nil && !c.replied && bytes.Contains(c.written.Bytes(), []byte("\r\n\r\n")) {
		c.replied = true
		respond = true
		req = parseRequest(c.written.String(), c.host, c.port)
	}
	c.mu.Unlock()

	if respond {
		reply := c.network.serve(req)
		c.Feed(reply.Data)
		if reply.Hangup {
			c.Hangup()
		}
	}

	return len(p), nil
}

// Close closes the local side and discards unread bytes.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.open = false
	c.in = nil

	return nil
}

// Feed queues bytes as if the peer had sent them.
func (c *Conn) Feed(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.in = append(c.in, p...)
}

// Hangup closes the peer side. Bytes already fed remain readable.
func (c *Conn) Hangup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hungUp = true
}

// Written returns everything written since the last Connect.
func (c *Conn) Written() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.written.String()
}

// Open reports whether the local side is open.
func (c *Conn) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.open
}

// Connects returns how many times Connect was called.
func (c *Conn) Connects() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connects
}

// Network is a [transport.Factory] source whose connections answer
// requests through a [Handler].
type Network struct {
	mu       sync.Mutex
	handler  Handler
	refuse   bool
	conns    []*Conn
	requests []Request
}

// NewNetwork returns a network answering with h.
func NewNetwork(h Handler) *Network {
	return &Network{handler: h}
}

// Factory satisfies [transport.Factory].
func (n *Network) Factory() transport.Conn {
	c := &Conn{network: n}

	n.mu.Lock()
	n.conns = append(n.conns, c)
	n.mu.Unlock()

	return c
}

// Refuse toggles whether new connects fail with ErrRefused.
func (n *Network) Refuse(refuse bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.refuse = refuse
}

// Conns returns every connection handed out, in order.
func (n *Network) Conns() []*Conn {
	n.mu.Lock()
	defer n.mu.Unlock()

	return slices.Clone(n.conns)
}

// Requests returns every request served, in order.
func (n *Network) Requests() []Request {
	n.mu.Lock()
	defer n.mu.Unlock()

	return slices.Clone(n.requests)
}

func (n *Network) refusing() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.refuse
}

func (n *Network) serve(req Request) Reply {
	n.mu.Lock()
	n.requests = append(n.requests, req)
	h := n.handler
	n.mu.Unlock()

	if h == nil {
		return Reply{}
	}

	return h(req)
}

// HTTP renders a complete HTTP/1.1 response. Content-Length is not added
// automatically; pass it in header when the body should be length-delimited.
func HTTP(code int, header map[string]string, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", code, http.StatusText(code))

	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, header[k])
	}
	b.WriteString("\r\n")
	b.WriteString(body)

	return []byte(b.String())
}

func parseRequest(raw, host string, port int) Request {
	req := Request{
		Host:   host,
		Port:   port,
		Header: make(map[string]string),
		Raw:    raw,
	}

	head, _, _ := strings.Cut(raw, "\r\n\r\n")
	lines := strings.Split(head, "\r\n")

	if parts := strings.SplitN(lines[0], " ", 3); len(parts) == 3 {
		req.Method, req.Path, req.Proto = parts[0], parts[1], parts[2]
	}

	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		req.Header[name] = strings.TrimSpace(value)
	}

	return req
}
