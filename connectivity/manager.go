package connectivity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/adamwoolhether/pollhttp/internal/validate"
)

const (
	defaultRetryInterval = 5 * time.Second
	defaultPingTimeout   = 5 * time.Second
)

// Manager tracks one network link. It is safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	radio     Radio
	creds     Credentials
	retry     *rate.Sometimes
	pending   bool
	lastErr   error
	interval  time.Duration
	pingLimit time.Duration
	indicator Indicator
	logger    *slog.Logger
}

// New validates creds and returns a Manager for radio. Nothing is sent to
// the radio until TryConnect.
func New(radio Radio, creds Credentials, optFns ...Option) (*Manager, error) {
	if radio == nil {
		return nil, ErrNoRadio
	}

	if err := validate.Struct(creds); err != nil {
		return nil, fmt.Errorf("validating credentials: %w", err)
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	m := &Manager{
		radio:     radio,
		creds:     creds,
		interval:  defaultRetryInterval,
		pingLimit: defaultPingTimeout,
		logger:    slog.Default(),
	}

	if opts.logger != nil {
		m.logger = opts.logger
	}
	if opts.indicator != nil {
		m.indicator = opts.indicator
	}
	if opts.retryInterval != nil {
		m.interval = *opts.retryInterval
	}
	if opts.pingTimeout != nil {
		m.pingLimit = *opts.pingTimeout
	}

	m.resetRetry()

	return m, nil
}

// Available reports whether network hardware is present.
func (m *Manager) Available() bool {
	return m.radio.Present()
}

// Connected reports whether the link is up.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.observe()
}

// TryConnect makes progress toward a connected link without blocking and
// reports whether the link is up. The first call starts an association;
// later calls re-issue it at most once per retry interval until the radio
// reports connected.
func (m *Manager) TryConnect() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.radio.Present() {
		return false, ErrNoRadio
	}

	if m.observe() {
		return true, nil
	}

	m.retry.Do(m.begin)

	return false, m.lastErr
}

// Disconnect drops the link. The next TryConnect starts a new association
// right away.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("disconnecting from network", "ssid", m.creds.SSID)

	m.pending = false
	m.resetRetry()
	m.idle()

	if err := m.radio.Disconnect(); err != nil {
		return fmt.Errorf("disconnecting: %w", err)
	}

	return nil
}

// Ping measures the round trip to host. It fails with ErrNotConnected while
// the link is down. Without a deadline on ctx the ping timeout applies.
func (m *Manager) Ping(ctx context.Context, host string) (time.Duration, error) {
	if !m.Connected() {
		return 0, ErrNotConnected
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.pingLimit)
		defer cancel()
	}

	d, err := m.radio.Ping(ctx, host)
	if err != nil {
		return 0, fmt.Errorf("pinging %s: %w", host, err)
	}

	return d, nil
}

// observe reads the radio status and settles a pending attempt.
func (m *Manager) observe() bool {
	if m.radio.Status() != StatusConnected {
		return false
	}

	if m.pending {
		m.pending = false
		m.lastErr = nil
		m.resetRetry()
		m.idle()
		m.logger.Info("connected to network", "ssid", m.creds.SSID)
	}

	return true
}

func (m *Manager) begin() {
	m.pending = true
	if m.indicator != nil {
		m.indicator.Connecting()
	}

	m.logger.Info("attempting to connect", "ssid", m.creds.SSID)

	if err := m.radio.Begin(m.creds.SSID, m.creds.Passphrase); err != nil {
		m.lastErr = fmt.Errorf("starting association: %w", err)
		m.logger.Warn("association failed", "ssid", m.creds.SSID, "status", m.radio.Status(), "error", err)
		return
	}
	m.lastErr = nil
}

func (m *Manager) idle() {
	if m.indicator != nil {
		m.indicator.Idle()
	}
}

// resetRetry lets the next TryConnect issue an association immediately.
func (m *Manager) resetRetry() {
	m.retry = &rate.Sometimes{First: 1, Interval: m.interval}
}
