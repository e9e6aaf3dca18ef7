package client

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// defaultPollInterval is how long blocking reads sleep between probes of an
// idle connection.
const defaultPollInterval = 10 * time.Millisecond

// defaultStatus is reported when no valid status line was received.
const defaultStatus = http.StatusBadRequest

var (
	// ErrNotConnected is reported by a Response whose connection could not be
	// (re)established.
	ErrNotConnected = errors.New("not connected")
	// ErrMalformedStatus is reported when the status line is absent or unparseable.
	ErrMalformedStatus = errors.New("malformed status line")
	// ErrContentLengthMismatch is reported when the connection closed before
	// the declared Content-Length was received.
	ErrContentLengthMismatch = errors.New("content length mismatch")
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrTLSUnsupported is returned for https targets.
	ErrTLSUnsupported = errors.New("tls is not supported")
	// ErrInvalidTarget is returned for URLs that don't name a host.
	ErrInvalidTarget = errors.New("invalid target")
)

// UnexpectedStatusError is returned when a body was requested from a
// response that is not 2xx.
type UnexpectedStatusError struct {
	StatusCode int
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d", e.Err, e.StatusCode)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}
