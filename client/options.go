package client

import (
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/pollhttp/transport"
)

// Option is a functional option for configuring a [Client] via [New].
type Option func(*options) error
type options struct {
	factory      transport.Factory
	pollInterval *time.Duration
	tracer       trace.Tracer
	logger       *slog.Logger
}

// WithConnFactory replaces the default TCP transport.
func WithConnFactory(f transport.Factory) Option {
	return func(o *options) error {
		if f == nil {
			return errors.New("conn factory must not be nil")
		}
		o.factory = f
		return nil
	}
}

// WithPollInterval sets how long blocking reads sleep while no bytes are
// buffered.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		o.pollInterval = &d
		return nil
	}
}

// WithTracer injects an OpenTelemetry tracer; requests are wrapped in spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}
