package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adamwoolhether/pollhttp/transport"
)

// readAllChunk bounds each read ReadAll makes.
const readAllChunk = 1 << 10

// Response is one HTTP response being read off a transport connection.
//
// The status line and headers are parsed when the Response is created. The
// body is then consumed either incrementally with [Response.Ready] and
// [Response.Drain], which never block, or with the blocking
// [Response.ReadLine], [Response.ReadChunk] and [Response.ReadAll].
//
// A Response is not safe for concurrent use.
type Response struct {
	conn transport.Conn
	poll time.Duration

	status     int
	length     int64
	downloaded int64
	location   string
	finished   bool
	err        error
}

// newResponse parses the status line and header block from conn, waiting
// for bytes as needed.
func newResponse(ctx context.Context, conn transport.Conn, poll time.Duration) *Response {
	r := &Response{
		conn:   conn,
		poll:   poll,
		status: defaultStatus,
		length: -1,
	}

	r.parseHead(ctx)

	return r
}

// failedResponse is bound to a connection that never carried a request.
func failedResponse(conn transport.Conn, err error) *Response {
	return &Response{
		conn:     conn,
		status:   defaultStatus,
		length:   -1,
		finished: true,
		err:      err,
	}
}

// StatusCode returns the status code, or 400 if no valid status line arrived.
func (r *Response) StatusCode() int { return r.status }

// ContentLength returns the declared body size, or -1 if none was declared.
func (r *Response) ContentLength() int64 { return r.length }

// Downloaded returns the number of body bytes consumed so far.
func (r *Response) Downloaded() int64 { return r.downloaded }

// Location returns the redirect target. It is only set for redirect statuses.
func (r *Response) Location() string { return r.location }

// Done reports whether the response is complete. It never reverts to false.
func (r *Response) Done() bool { return r.finished }

// Err returns the transport or protocol failure that ended the response
// early, if any.
func (r *Response) Err() error { return r.err }

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.status >= 200 && r.status < 300
}

// Redirected reports whether the status is 301, 307 or 308.
func (r *Response) Redirected() bool {
	switch r.status {
	case http.StatusMovedPermanently, http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// Ready reports whether Drain would make progress right now: bytes are
// buffered, or the connection dropped and that hasn't been observed yet.
func (r *Response) Ready() bool {
	if r.finished {
		return false
	}

	return r.conn.Available() > 0 || !r.conn.Connected()
}

// Drain returns whatever body bytes are buffered right now, without waiting.
// It marks the response done once Content-Length bytes have been read, or
// once the connection has closed.
func (r *Response) Drain() []byte {
	if r.finished {
		return nil
	}

	data := r.take(r.conn.Available())
	r.settle()

	return data
}

// ReadChunk waits until at least one body byte is buffered, then returns up
// to maxBytes of them. It returns nil once the response is done.
func (r *Response) ReadChunk(ctx context.Context, maxBytes int) ([]byte, error) {
	if r.finished || maxBytes <= 0 {
		return nil, nil
	}

	for r.conn.Available() == 0 {
		if !r.conn.Connected() {
			r.settle()
			return nil, nil
		}
		if err := r.wait(ctx); err != nil {
			return nil, err
		}
	}

	data := r.take(min(maxBytes, r.conn.Available()))
	r.settle()

	return data, nil
}

// ReadLine reads one line of the body, waiting for bytes as needed. The
// line feed and a trailing carriage return are stripped. If the connection
// closes first, the partial line is returned and the response is done.
func (r *Response) ReadLine(ctx context.Context) (string, error) {
	return r.readLine(ctx, true)
}

// ReadAll reads the rest of the body. It blocks until the response is done
// and is meant for small responses, not the polling download path.
func (r *Response) ReadAll(ctx context.Context) ([]byte, error) {
	var body []byte
	for !r.finished {
		chunk, err := r.ReadChunk(ctx, readAllChunk)
		body = append(body, chunk...)
		if err != nil {
			return body, err
		}
	}

	return body, nil
}

// Close abandons the response and closes its connection. The response is
// done afterwards.
func (r *Response) Close() error {
	r.finished = true
	if err := r.conn.Close(); err != nil {
		return fmt.Errorf("closing connection: %w", err)
	}

	return nil
}

// parseHead reads the status line and headers. Only Content-Length and,
// for redirects, Location are interpreted.
func (r *Response) parseHead(ctx context.Context) {
	line, err := r.readLine(ctx, false)
	if err != nil {
		r.fail(fmt.Errorf("reading status line: %w", err))
		return
	}

	code, ok := parseStatusLine(line)
	if !ok {
		r.err = fmt.Errorf("%w: %q", ErrMalformedStatus, line)
	} else {
		r.status = code
	}

	for !r.finished {
		line, err := r.readLine(ctx, false)
		if err != nil {
			r.fail(fmt.Errorf("reading headers: %w", err))
			return
		}
		if line == "" {
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch name {
		case "Content-Length":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil && n >= 0 {
				r.length = n
			}
		case "Location":
			if r.Redirected() {
				r.location = value
			}
		}
	}

	if !r.OK() || r.length == 0 {
		r.finished = true
	}
}

// readLine accumulates bytes up to a line feed. Body reads count toward
// Downloaded and stop at Content-Length.
func (r *Response) readLine(ctx context.Context, body bool) (string, error) {
	if r.finished {
		return "", nil
	}

	var line []byte
	for r.conn.Connected() {
		if body && r.remaining() == 0 {
			break
		}

		if r.conn.Available() == 0 {
			if err := r.wait(ctx); err != nil {
				return string(line), err
			}
			continue
		}

		b, err := r.conn.ReadByte()
		if err != nil {
			continue
		}
		if body {
			r.downloaded++
		}

		if b == '\n' {
			if body {
				r.settle()
			}
			return strings.TrimSuffix(string(line), "\r"), nil
		}
		line = append(line, b)
	}

	if body {
		r.settle()
	} else {
		r.finished = true
	}

	return strings.TrimSuffix(string(line), "\r"), nil
}

// take reads up to n buffered bytes without crossing Content-Length.
func (r *Response) take(n int) []byte {
	if rem := r.remaining(); rem >= 0 && int64(n) > rem {
		n = int(rem)
	}
	if n <= 0 {
		return nil
	}

	data := make([]byte, 0, n)
	for range n {
		b, err := r.conn.ReadByte()
		if err != nil {
			break
		}
		data = append(data, b)
	}
	r.downloaded += int64(len(data))

	return data
}

// settle marks the response done when the body is complete.
func (r *Response) settle() {
	if r.length >= 0 && r.downloaded >= r.length {
		r.finished = true
		return
	}

	if !r.conn.Connected() {
		r.finished = true
		if r.length >= 0 {
			r.err = fmt.Errorf("%w: expected %d bytes, got %d", ErrContentLengthMismatch, r.length, r.downloaded)
		}
	}
}

// remaining is the number of body bytes still expected, or -1 if unknown.
func (r *Response) remaining() int64 {
	if r.length < 0 {
		return -1
	}
	return max(r.length-r.downloaded, 0)
}

func (r *Response) fail(err error) {
	r.finished = true
	r.err = err
}

// wait sleeps for one poll interval, or until ctx is done.
func (r *Response) wait(ctx context.Context) error {
	timer := time.NewTimer(r.poll)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseStatusLine extracts the code between the first two spaces of
// "<version> <code> <reason>".
func parseStatusLine(line string) (int, bool) {
	_, rest, ok := strings.Cut(line, " ")
	if !ok {
		return 0, false
	}

	code, _, ok := strings.Cut(rest, " ")
	if !ok {
		return 0, false
	}

	n, err := strconv.Atoi(code)
	if err != nil {
		return 0, false
	}

	return n, true
}
