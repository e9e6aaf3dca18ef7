package download

import (
	"errors"
	"fmt"
)

var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrWriteFailed      = errors.New("write failed")
)

// Error carries detail about a failed download.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Info is a point-in-time snapshot of a queued download.
type Info struct {
	ID            int
	Path          string
	URL           string
	StatusCode    int
	Downloaded    int64
	ContentLength int64
	Done          bool
	Redirects     int
	Err           error
}
