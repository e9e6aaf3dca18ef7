// Package download queues HTTP GET downloads to files and advances them
// from a single polling loop.
//
// # Queueing
//
// [Queue.Enqueue] deletes any existing file at the destination, issues the
// request, follows up to five redirects and registers the download under a
// stable id:
//
//	q, err := download.NewQueue(download.WithLogger(logger))
//	id, err := q.Enqueue(ctx, "/data/a.bin", "http://example.com/a.bin")
//
// # Polling
//
// Nothing moves until the caller ticks the queue. [Queue.Process] appends
// whatever bytes are buffered right now to each destination and never
// blocks; [Queue.Cleanup] drops finished entries. Always process before
// cleaning up in the same tick, [Queue.Tick] does both in that order:
//
//	for q.Len() > 0 {
//		q.Tick()
//		// other device work
//	}
//
// Once cleaned up, an id is unknown and [Queue.Finished] reports false for
// it; poll Finished only between Process and Cleanup.
//
// Only http URLs are supported.
package download
