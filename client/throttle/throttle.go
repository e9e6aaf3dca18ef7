package throttle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/adamwoolhether/pollhttp/transport"
)

// NewFactory returns a transport.Factory whose connections wait on a shared
// token bucket before each Connect. logFn lazily resolves the logger at
// connect time, making option ordering irrelevant. A nil logFn, or one
// returning nil, disables the exhaustion logging.
func NewFactory(rps, burst int, logFn func() *slog.Logger, next transport.Factory) (transport.Factory, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, ErrMustNotBeZero)
	}
	if next == nil {
		next = transport.DefaultFactory
	}

	t := &throttle{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		rps:     rps,
		burst:   burst,
		next:    next,
		logFn:   logFn,
	}

	return t.factory, nil
}

func (t *throttle) factory() transport.Conn {
	return &conn{Conn: t.next(), t: t}
}

func (c *conn) Connect(ctx context.Context, host string, port int) error {
	if err := c.t.wait(ctx, host); err != nil {
		return err
	}

	return c.Conn.Connect(ctx, host, port)
}

func (t *throttle) wait(ctx context.Context, host string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	var waited time.Duration
	var logger *slog.Logger
	if t.logFn != nil {
		logger = t.logFn()
	}
	if logger != nil && t.limiter.Tokens() < 1 {
		logger.Info("throttle tokens exhausted", "rate", t.rps, "burst", t.burst, "host", host)

		defer func() {
			logger.Info("throttle wait complete", "waited", waited.String(), "rate", t.rps, "burst", t.burst)
		}()
	}

	start := time.Now()

	err := t.limiter.Wait(ctx)
	waited = time.Since(start)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if err := ctx.Err(); err != nil { // Check context hasn't expired again.
		return fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return nil
}
