package connectivity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNoRadio      = errors.New("network module not present")
	ErrNotConnected = errors.New("network not connected")
)

// Status is the state a Radio reports for its link.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusConnected
	StatusFailed
	StatusNoModule
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusFailed:
		return "failed"
	case StatusNoModule:
		return "no module"
	}
	return "unknown"
}

// Radio is the network hardware. Begin starts an association and returns
// without waiting for it to complete.
type Radio interface {
	Present() bool
	Status() Status
	Begin(ssid, passphrase string) error
	Disconnect() error
	Ping(ctx context.Context, host string) (time.Duration, error)
}

// Indicator mirrors link activity, typically on a status LED.
type Indicator interface {
	Connecting()
	Idle()
}

// Credentials identify the network to join.
type Credentials struct {
	SSID       string `yaml:"ssid" json:"ssid" validate:"required,max=32"`
	Passphrase string `yaml:"passphrase" json:"passphrase" validate:"max=63"`
}
