package download

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adamwoolhether/pollhttp/client"
)

// outcome classifies a response in a redirect chain.
type outcome interface{ isOutcome() }

// redirect points at the next location to request.
type redirect struct{ location string }

// final is a response to keep as the download's state.
type final struct{}

func (redirect) isOutcome() {}
func (final) isOutcome()    {}

func classify(resp *client.Response) outcome {
	if resp.Redirected() && resp.Location() != "" {
		return redirect{location: resp.Location()}
	}
	return final{}
}

// hop is one request of a chain and the client that owns its connection.
type hop struct {
	target client.Target
	client *client.Client
	resp   *client.Response
}

// chain is where following redirects stopped.
type chain struct {
	hop
	redirects int
	visited   []string
}

// follow requests target and chases redirects until a final response, the
// redirect limit, or a location that can't be followed. The last response
// is kept in every case; hitting the limit is not an error.
func (q *Queue) follow(ctx context.Context, target client.Target, log *slog.Logger) (chain, error) {
	var ch chain
	seen := make(map[string]struct{})

	for {
		h, err := q.get(ctx, target)
		if err != nil {
			return chain{}, err
		}
		ch.hop = h
		ch.visited = append(ch.visited, target.String())
		seen[target.String()] = struct{}{}

		switch o := classify(h.resp).(type) {
		case final:
			return ch, nil

		case redirect:
			if ch.redirects >= q.redirectLimit {
				log.Debug("redirect limit reached", "limit", q.redirectLimit, "location", o.location)
				return ch, nil
			}

			next, err := target.Resolve(o.location)
			if err != nil {
				log.Warn("cannot follow redirect", "location", o.location, "error", err)
				return ch, nil
			}

			if _, ok := seen[next.String()]; ok {
				log.Warn("redirect cycle", "location", next.String(), "visited", ch.visited)
			}

			if err := h.client.Close(); err != nil {
				log.Debug("closing redirected connection", "error", err)
			}

			log.Debug("following redirect", "host", h.client.Host(), "port", h.client.Port(), "status", h.resp.StatusCode(), "location", next.String())
			ch.redirects++
			target = next
		}
	}
}

// get issues one request on a fresh client.
func (q *Queue) get(ctx context.Context, target client.Target) (hop, error) {
	opts := []client.Option{
		client.WithConnFactory(q.factory),
		client.WithTracer(q.tracer),
		client.WithLogger(q.logger),
	}
	if q.pollInterval > 0 {
		opts = append(opts, client.WithPollInterval(q.pollInterval))
	}

	c, err := client.New(ctx, target.Host, target.Port, opts...)
	if err != nil {
		return hop{}, fmt.Errorf("creating client: %w", err)
	}

	return hop{target: target, client: c, resp: c.Get(ctx, target.Path)}, nil
}
