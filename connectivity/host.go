package connectivity

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// HostRadio is a [Radio] backed by the host's own network stack. There is
// nothing to associate with: Begin marks the link wanted, and the link is up
// while the host has a non-loopback interface that is up.
type HostRadio struct {
	mu     sync.Mutex
	wanted bool

	// Interfaces lists the host's interfaces; nil uses net.Interfaces.
	Interfaces func() ([]net.Interface, error)
	// PingPort is dialed by Ping when host names no port. The default is 80.
	PingPort string
}

// NewHostRadio returns a HostRadio using the host's interfaces.
func NewHostRadio() *HostRadio {
	return &HostRadio{}
}

// Present always reports true.
func (h *HostRadio) Present() bool { return true }

// Status reports connected once Begin was called and an interface is up.
func (h *HostRadio) Status() Status {
	h.mu.Lock()
	wanted := h.wanted
	h.mu.Unlock()

	if !wanted {
		return StatusIdle
	}

	list := h.Interfaces
	if list == nil {
		list = net.Interfaces
	}

	ifaces, err := list()
	if err != nil {
		return StatusFailed
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagLoopback == 0 {
			return StatusConnected
		}
	}

	return StatusConnecting
}

// Begin marks the link wanted. Credentials are not used by the host stack.
func (h *HostRadio) Begin(ssid, passphrase string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.wanted = true

	return nil
}

// Disconnect marks the link unwanted.
func (h *HostRadio) Disconnect() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.wanted = false

	return nil
}

// Ping reports how long a TCP connect to host takes.
func (h *HostRadio) Ping(ctx context.Context, host string) (time.Duration, error) {
	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		port := h.PingPort
		if port == "" {
			port = "80"
		}
		addr = net.JoinHostPort(host, port)
	}

	var d net.Dialer

	start := time.Now()
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("dialing %s: %w", addr, err)
	}
	elapsed := time.Since(start)

	if err := conn.Close(); err != nil {
		return 0, fmt.Errorf("closing ping connection: %w", err)
	}

	return elapsed, nil
}
