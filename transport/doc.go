// Package transport defines the byte-stream connection that the HTTP
// client speaks over, and provides a TCP implementation of it.
//
// A [Conn] exposes only what a polling consumer needs: how many bytes are
// buffered right now, and a way to take them one at a time. Nothing on the
// read side ever blocks:
//
//	conn := transport.NewTCP()
//	if err := conn.Connect(ctx, "example.com", 80); err != nil { ... }
//	for conn.Available() > 0 {
//		b, _ := conn.ReadByte()
//		...
//	}
//
// Test doubles live in [github.com/adamwoolhether/pollhttp/transport/transporttest].
package transport
