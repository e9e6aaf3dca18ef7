package transport

import (
	"context"
	"errors"
)

var (
	// ErrNoData is returned by ReadByte when nothing is buffered.
	ErrNoData = errors.New("no data available")
	// ErrNotConnected is returned when writing to a connection that is not open.
	ErrNotConnected = errors.New("not connected")
)

// Conn is a point-to-point byte stream to one host:port.
//
// Connected reports true for as long as unread bytes remain buffered, even
// if the peer has already closed its side. Available and ReadByte never block.
type Conn interface {
	Connect(ctx context.Context, host string, port int) error
	Connected() bool
	Available() int
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
	Close() error
}

// Factory produces a fresh, unconnected Conn.
type Factory func() Conn

// DefaultFactory returns TCP connections with default settings.
func DefaultFactory() Conn {
	return NewTCP()
}
