package download

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/pollhttp/client"
	"github.com/adamwoolhether/pollhttp/client/throttle"
	"github.com/adamwoolhether/pollhttp/fsys"
	"github.com/adamwoolhether/pollhttp/transport"
)

// nextID hands out download ids for the whole process. Ids are never reused,
// even across queues.
var nextID atomic.Int64

// Queue holds the registered downloads and advances them on demand.
//
// Enqueue may block while a request's headers arrive. Process, Cleanup and
// the accessors never block on the network.
type Queue struct {
	mu      sync.Mutex
	entries []*entry

	fs            fsys.FS
	factory       transport.Factory
	redirectLimit int
	pollInterval  time.Duration
	tracer        trace.Tracer
	logger        *slog.Logger
}

// NewQueue builds an empty Queue writing to the host filesystem over TCP.
func NewQueue(optFns ...QueueOption) (*Queue, error) {
	var opts queueOptions
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying queue option: %w", err)
		}
	}

	q := &Queue{
		fs:            fsys.New(""),
		factory:       transport.DefaultFactory,
		redirectLimit: defaultRedirectLimit,
		tracer:        noop.NewTracerProvider().Tracer("no-op tracer"),
		logger:        slog.Default(),
	}

	if opts.logger != nil {
		q.logger = opts.logger
	}
	if opts.tracer != nil {
		q.tracer = opts.tracer
	}
	if opts.fs != nil {
		q.fs = opts.fs
	}
	if opts.factory != nil {
		q.factory = opts.factory
	}
	if opts.redirectLimit != nil {
		q.redirectLimit = *opts.redirectLimit
	}
	if opts.pollInterval != nil {
		q.pollInterval = *opts.pollInterval
	}

	if opts.throttle != nil {
		f, err := throttle.NewFactory(opts.throttle.rps, opts.throttle.burst, func() *slog.Logger { return q.logger }, q.factory)
		if err != nil {
			return nil, fmt.Errorf("creating throttle: %w", err)
		}
		q.factory = f
	}

	return q, nil
}

// Enqueue registers a download of rawURL into path and returns its id.
//
// An existing file at path is deleted first so the new body never lands
// after stale bytes. The request is sent and its headers parsed before
// Enqueue returns; redirects are followed up to the queue's limit. A failed
// connection still registers an entry, already finished.
//
// Enqueue only fails for an invalid URL or option. The id it allocated is
// not reused.
func (q *Queue) Enqueue(ctx context.Context, path, rawURL string, optFns ...Option) (int, error) {
	id := int(nextID.Add(1))

	ctx, span := q.tracer.Start(ctx, "download.enqueue")
	defer span.End()

	traceID := span.SpanContext().TraceID().String()
	if !span.SpanContext().TraceID().IsValid() {
		traceID = uuid.New().String()
	}
	log := q.logger.With("id", id, "trace_id", traceID, "path", path)

	span.SetAttributes(
		attribute.Int("id", id),
		attribute.String("path", path),
		attribute.String("url", rawURL),
	)

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			err = fmt.Errorf("applying download option: %w", err)
			span.SetStatus(codes.Error, err.Error())
			return 0, err
		}
	}

	target, err := client.ParseTarget(rawURL)
	if err != nil {
		err = fmt.Errorf("parsing url: %w", err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	if q.fs.Exists(path) {
		if err := q.fs.Remove(path); err != nil {
			log.Warn("removing stale file", "error", err)
		} else {
			log.Debug("removed stale file")
		}
	}

	ch, err := q.follow(ctx, target, log)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	e := &entry{
		id:        id,
		path:      path,
		url:       ch.target.String(),
		client:    ch.client,
		resp:      ch.resp,
		redirects: ch.redirects,
		checksum:  opts.checksum,
		log:       log,
	}
	if opts.progress {
		e.progress = newProgress(log, ch.resp.ContentLength())
	}

	span.SetAttributes(
		attribute.Int("redirects", ch.redirects),
		attribute.Int("status", ch.resp.StatusCode()),
	)
	if err := ch.resp.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
	}

	log.Info("download queued", "url", e.url, "status", ch.resp.StatusCode(), "contentLength", ch.resp.ContentLength(), "redirects", ch.redirects)

	q.mu.Lock()
	q.entries = append(q.entries, e)
	q.mu.Unlock()

	return id, nil
}

// Finished reports whether download id is done. Unknown or already cleaned
// up ids report false.
func (q *Queue) Finished(id int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := q.find(id)
	if e == nil {
		return false
	}

	return e.resp.Done()
}

// Err returns the failure recorded for download id: a transport error, a
// short body, a write failure or a checksum mismatch. It returns nil for
// healthy and unknown ids. A write failure does not end the download.
func (q *Queue) Err(id int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := q.find(id)
	if e == nil {
		return nil
	}

	return e.failure()
}

// Info returns a snapshot of download id.
func (q *Queue) Info(id int) (Info, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := q.find(id)
	if e == nil {
		return Info{}, false
	}

	return e.info(), true
}

// All yields a snapshot of every registered download.
func (q *Queue) All() iter.Seq[Info] {
	return func(yield func(Info) bool) {
		q.mu.Lock()
		infos := make([]Info, len(q.entries))
		for i, e := range q.entries {
			infos[i] = e.info()
		}
		q.mu.Unlock()

		for _, info := range infos {
			if !yield(info) {
				return
			}
		}
	}
}

// Len returns the number of registered downloads.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.entries)
}

// Process moves the bytes buffered right now for every download onto the
// end of its file and returns how many were written. It never waits: call
// it repeatedly until the downloads are finished.
func (q *Queue) Process() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	var moved int
	for _, e := range q.entries {
		if e.resp.Ready() {
			data := e.resp.Drain()
			if len(data) > 0 {
				if err := q.fs.Append(e.path, data); err != nil {
					e.log.Error("appending to file", "bytes", len(data), "error", err)
					e.fail(&Error{Err: ErrWriteFailed, Detail: err.Error()})
				} else {
					moved += len(data)
					e.written(data)
				}
			}
		}

		e.settle()
	}

	return moved
}

// Cleanup removes every finished download, closing its connection, and
// returns how many were removed. Unfinished downloads are never touched.
//
// Bytes still buffered for a download that finished since the last Process
// are dropped with it; run Process first.
func (q *Queue) Cleanup() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	var removed int
	for i := 0; i < len(q.entries); {
		e := q.entries[i]
		if !e.resp.Done() {
			i++
			continue
		}

		e.settle()
		e.close()

		last := len(q.entries) - 1
		q.entries[i] = q.entries[last]
		q.entries[last] = nil
		q.entries = q.entries[:last]
		removed++
	}

	return removed
}

// Tick runs Process then Cleanup.
func (q *Queue) Tick() (moved, removed int) {
	moved = q.Process()
	removed = q.Cleanup()

	return moved, removed
}

// Close drops every download, finished or not, closing their connections.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, e := range q.entries {
		e.close()
	}
	clear(q.entries)
	q.entries = q.entries[:0]
}

func (q *Queue) find(id int) *entry {
	for _, e := range q.entries {
		if e.id == id {
			return e
		}
	}
	return nil
}
