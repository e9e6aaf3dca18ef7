package download

import (
	"errors"
	"hash"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/pollhttp/fsys"
	"github.com/adamwoolhether/pollhttp/transport"
)

const defaultRedirectLimit = 5

// QueueOption configures a [Queue] via [NewQueue].
type QueueOption func(*queueOptions) error

type queueOptions struct {
	logger        *slog.Logger
	tracer        trace.Tracer
	fs            fsys.FS
	factory       transport.Factory
	redirectLimit *int
	pollInterval  *time.Duration
	throttle      *throttleConfig
}

type throttleConfig struct {
	rps   int
	burst int
}

// WithLogger injects a custom [slog.Logger].
func WithLogger(logger *slog.Logger) QueueOption {
	return func(o *queueOptions) error {
		o.logger = logger
		return nil
	}
}

// WithTracer injects an OpenTelemetry tracer. Each Enqueue and every
// request it makes get a span.
func WithTracer(tracer trace.Tracer) QueueOption {
	return func(o *queueOptions) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithFS replaces the host filesystem.
func WithFS(fs fsys.FS) QueueOption {
	return func(o *queueOptions) error {
		if fs == nil {
			return errors.New("filesystem must not be nil")
		}
		o.fs = fs
		return nil
	}
}

// WithConnFactory replaces the default TCP transport.
func WithConnFactory(f transport.Factory) QueueOption {
	return func(o *queueOptions) error {
		if f == nil {
			return errors.New("conn factory must not be nil")
		}
		o.factory = f
		return nil
	}
}

// WithRedirectLimit sets how many redirects Enqueue follows. The default
// is 5; zero disables following.
func WithRedirectLimit(n int) QueueOption {
	return func(o *queueOptions) error {
		if n < 0 {
			return errors.New("redirect limit must not be negative")
		}
		o.redirectLimit = &n
		return nil
	}
}

// WithPollInterval sets the sleep used while response headers are awaited.
func WithPollInterval(d time.Duration) QueueOption {
	return func(o *queueOptions) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		o.pollInterval = &d
		return nil
	}
}

// WithThrottle limits how often the queue opens connections.
func WithThrottle(rps, burst int) QueueOption {
	return func(o *queueOptions) error {
		o.throttle = &throttleConfig{rps: rps, burst: burst}
		return nil
	}
}

// Option defines optional settings for a single download, passed to
// [Queue.Enqueue].
type Option func(*options) error

type options struct {
	checksum *checksumVerifier
	progress bool
}

// WithChecksum hashes the body as it is appended to the file and verifies
// it once the download finishes. h is a hash.Hash instance (e.g.
// sha256.New()), and expected is the hex-encoded expected checksum string.
// A mismatch is reported by [Queue.Err].
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{hash: h, expected: expected}
		return nil
	}
}

// WithProgress logs download progress at most once per second, and once
// more when the download completes.
func WithProgress() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}
