package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"
)

const (
	defaultDialTimeout = 5 * time.Second
	defaultMaxBuffered = 64 << 10 // 64KB
	readChunkSize      = 4 << 10
)

// TCPOption configures a [TCP] connection.
type TCPOption func(*TCP)

// WithDialTimeout bounds how long Connect waits for the dial to complete.
func WithDialTimeout(d time.Duration) TCPOption {
	return func(t *TCP) {
		t.dialTimeout = d
	}
}

// WithMaxBuffered caps the number of unread bytes held in memory. The
// background reader stops pulling from the socket until the consumer
// catches up.
func WithMaxBuffered(n int) TCPOption {
	return func(t *TCP) {
		if n > 0 {
			t.maxBuffered = n
		}
	}
}

// TCP is a [Conn] over a net.Conn. A background reader moves bytes from the
// socket into a bounded buffer so that Available and ReadByte can answer
// without touching the network.
type TCP struct {
	dialTimeout time.Duration
	maxBuffered int

	mu   sync.Mutex
	cond *sync.Cond
	conn net.Conn
	buf  []byte
	eof  bool
	err  error
	gen  uint64
}

// NewTCP returns an unconnected TCP transport.
func NewTCP(opts ...TCPOption) *TCP {
	t := &TCP{
		dialTimeout: defaultDialTimeout,
		maxBuffered: defaultMaxBuffered,
	}
	t.cond = sync.NewCond(&t.mu)

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Connect dials host:port, dropping any previous connection first.
func (t *TCP) Connect(ctx context.Context, host string, port int) error {
	if err := t.Close(); err != nil {
		return fmt.Errorf("closing previous connection: %w", err)
	}

	d := net.Dialer{Timeout: t.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("dialing %s:%d: %w", host, port, err)
	}

	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.conn = conn
	t.buf = nil
	t.eof = false
	t.err = nil
	t.mu.Unlock()

	go t.pump(conn, gen)

	return nil
}

// Connected reports whether the socket is open or unread bytes remain.
func (t *TCP) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.conn != nil && (!t.eof || len(t.buf) > 0)
}

// Available returns the number of buffered, unread bytes.
func (t *TCP) Available() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.buf)
}

// ReadByte takes one buffered byte, or returns ErrNoData.
func (t *TCP) ReadByte() (byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.buf) == 0 {
		return 0, ErrNoData
	}

	b := t.buf[0]
	t.buf = t.buf[1:]
	if len(t.buf) < t.maxBuffered {
		t.cond.Signal()
	}

	return b, nil
}

// Write sends p to the peer.
func (t *TCP) Write(p []byte) (int, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return 0, ErrNotConnected
	}

	return conn.Write(p)
}

// Err returns the read error that ended the stream, if it wasn't a clean EOF.
func (t *TCP) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.err
}

// Close shuts the socket and discards anything still buffered. It is safe
// to call on an unconnected or already closed transport.
func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	if t.conn != nil {
		err = t.conn.Close()
		t.conn = nil
	}

	t.gen++
	t.buf = nil
	t.eof = true
	t.cond.Broadcast()

	if errors.Is(err, net.ErrClosed) {
		return nil
	}

	return err
}

// pump copies from conn into the buffer until EOF, error, or a newer
// generation replaces it.
func (t *TCP) pump(conn net.Conn, gen uint64) {
	chunk := make([]byte, readChunkSize)

	for {
		t.mu.Lock()
		for t.gen == gen && len(t.buf) >= t.maxBuffered {
			t.cond.Wait()
		}
		if t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()

		n, err := conn.Read(chunk)

		t.mu.Lock()
		if t.gen != gen {
			t.mu.Unlock()
			return
		}

		t.buf = append(t.buf, chunk[:n]...)
		if err != nil {
			t.eof = true
			if !errors.Is(err, io.EOF) {
				t.err = err
			}
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()
	}
}
