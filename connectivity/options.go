package connectivity

import (
	"errors"
	"log/slog"
	"time"
)

// Option configures a [Manager] via [New].
type Option func(*options) error

type options struct {
	logger        *slog.Logger
	indicator     Indicator
	retryInterval *time.Duration
	pingTimeout   *time.Duration
}

// WithLogger injects a custom [slog.Logger].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithIndicator reports link activity to ind.
func WithIndicator(ind Indicator) Option {
	return func(o *options) error {
		if ind == nil {
			return errors.New("indicator must not be nil")
		}
		o.indicator = ind
		return nil
	}
}

// WithRetryInterval sets how long TryConnect waits before re-issuing a
// pending association. The default is 5 seconds.
func WithRetryInterval(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.New("retry interval must be positive")
		}
		o.retryInterval = &d
		return nil
	}
}

// WithPingTimeout bounds Ping when the caller's context has no deadline.
// The default is 5 seconds.
func WithPingTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.New("ping timeout must be positive")
		}
		o.pingTimeout = &d
		return nil
	}
}
