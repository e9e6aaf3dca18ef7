// Command pollget downloads URLs to files from a single cooperative polling
// loop: wait for the network, queue every URL, then tick the queue until
// all downloads are finished.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/adamwoolhether/pollhttp/client/download"
	"github.com/adamwoolhether/pollhttp/connectivity"
)

func main() {
	app := &cli.App{
		Name:      appName,
		Usage:     "download URLs over a polled HTTP/1.1 client",
		ArgsUsage: "[URL...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{envVarPrefix + "_CONFIG_FILE"},
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "directory to download into",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "give up after this long; zero waits forever",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := LoadConfig(c.String("config"))
			if err != nil {
				return err
			}

			if c.IsSet("dir") {
				cfg.Dir = c.String("dir")
			}
			if c.IsSet("log-level") {
				cfg.Log.Level = c.String("log-level")
			}
			if c.IsSet("timeout") {
				cfg.Timeout = c.Duration("timeout")
			}
			if c.Args().Present() {
				cfg.URLs = c.Args().Slice()
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			return run(c.Context, cfg, newLogger(cfg.Log))
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(cfg LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if len(cfg.URLs) == 0 {
		log.Info("nothing to download")
		return nil
	}

	link, err := connectivity.New(connectivity.NewHostRadio(), cfg.Network, connectivity.WithLogger(log))
	if err != nil {
		return fmt.Errorf("creating network manager: %w", err)
	}

	opts := []download.QueueOption{
		download.WithLogger(log),
		download.WithRedirectLimit(cfg.RedirectLimit),
	}
	if cfg.Throttle.Enabled() {
		opts = append(opts, download.WithThrottle(cfg.Throttle.RPS, cfg.Throttle.Burst))
	}

	q, err := download.NewQueue(opts...)
	if err != nil {
		return fmt.Errorf("creating queue: %w", err)
	}
	defer q.Close()

	return poll(ctx, cfg, link, q, log)
}

// poll is the control loop. Each tick does one non-blocking step.
func poll(ctx context.Context, cfg Config, link *connectivity.Manager, q *download.Queue, log *slog.Logger) error {
	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	wait := func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			return nil
		}
	}

	for {
		connected, err := link.TryConnect()
		if errors.Is(err, connectivity.ErrNoRadio) {
			return err
		}
		if connected {
			break
		}
		if err := wait(); err != nil {
			return fmt.Errorf("waiting for network: %w", err)
		}
	}

	dests, err := destinations(cfg.Dir, cfg.URLs)
	if err != nil {
		return err
	}

	var errs []error
	for i, u := range cfg.URLs {
		if _, err := q.Enqueue(ctx, dests[i], u, download.WithProgress()); err != nil {
			log.Error("enqueue", "url", u, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
		}
	}

	for q.Len() > 0 {
		q.Process()

		for info := range q.All() {
			if !info.Done {
				continue
			}
			if err := result(info); err != nil {
				errs = append(errs, err)
			}
		}

		q.Cleanup()

		if q.Len() == 0 {
			break
		}
		if err := wait(); err != nil {
			return errors.Join(append(errs, fmt.Errorf("polling downloads: %w", err))...)
		}
	}

	return errors.Join(errs...)
}

// result turns a finished download into an error when it did not succeed.
func result(info download.Info) error {
	switch {
	case info.Err != nil:
		return fmt.Errorf("%s: %w", info.URL, info.Err)
	case info.StatusCode < 200 || info.StatusCode >= 300:
		return fmt.Errorf("%s: status %d", info.URL, info.StatusCode)
	}
	return nil
}
