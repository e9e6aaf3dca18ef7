// Package client provides a minimal HTTP/1.1 GET client for byte-stream
// transports that can only report how many bytes are buffered and hand
// them over one at a time.
//
// # Making Requests
//
// Build a [Client] for a host and port, then call [Client.Get]. The
// returned [Response] has its status line and headers already parsed:
//
//	c, err := client.New(ctx, "example.com", 80)
//	resp := c.Get(ctx, "/index.json")
//	if !resp.OK() { ... }
//
// # Reading the Body
//
// From a polling loop, never block:
//
//	for !resp.Done() {
//		if resp.Ready() {
//			sink.Write(resp.Drain())
//		}
//		// do other work
//	}
//
// For small, one-shot responses the blocking helpers are simpler:
//
//	var status struct{ Version string `json:"version" validate:"required"` }
//	err := resp.Decode(ctx, &status)
//
// Only Content-Length framed or close-delimited bodies are understood;
// chunked transfer encoding and TLS are not supported.
//
// For queued downloads to disk see the
// [github.com/adamwoolhether/pollhttp/client/download] package.
package client
