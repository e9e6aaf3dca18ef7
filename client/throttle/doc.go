// Package throttle rate-limits outbound connection attempts using a
// token-bucket algorithm from [golang.org/x/time/rate].
//
// # Usage
//
// Wrap an existing [transport.Factory] with [NewFactory]:
//
//	f, err := throttle.NewFactory(
//		10, // connects per second
//		5,  // burst capacity
//		func() *slog.Logger { return slog.Default() },
//		transport.DefaultFactory,
//	)
//	c, err := client.New(ctx, host, port, client.WithConnFactory(f))
//
// Every connection produced by the returned factory draws from the same
// bucket. When it is empty, Connect blocks until a token becomes available
// or the context is cancelled. Reads and writes are never throttled.
package throttle
