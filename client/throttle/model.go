package throttle

import (
	"errors"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/adamwoolhether/pollhttp/transport"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config defines the throttler's
// Connects Per Second and Burst Rate.
// A zero Config means no throttling.
type Config struct {
	RPS   int `yaml:"rps" json:"rps" validate:"gte=0"`
	Burst int `yaml:"burst" json:"burst" validate:"gte=0"`
}

// Enabled reports whether c asks for throttling.
func (c Config) Enabled() bool {
	return c.RPS > 0 || c.Burst > 0
}

// throttle hands out connections sharing one token-bucket limiter.
type throttle struct {
	limiter *rate.Limiter
	rps     int
	burst   int
	next    transport.Factory
	logFn   func() *slog.Logger
}

// conn is a transport.Conn whose Connect waits for a limiter token.
type conn struct {
	transport.Conn
	t *throttle
}
