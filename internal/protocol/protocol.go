// Package protocol implements the line-oriented wire protocol: per-connection
// buffering, command tokenizing, the eight verb handlers, and response
// framing. Each accepted connection runs on its own goroutine doing blocking
// socket I/O; every store mutation is funneled through store.Engine.Submit so
// the store itself never needs locking. Job bodies are streamed directly on
// the connection's goroutine, outside of any engine round trip, and only the
// already-received body is handed to the engine to commit.
package protocol

const (
	// MaxLineTokens bounds how many space-separated tokens a single command
	// line may contain before the remainder is ignored.
	MaxLineTokens = 100

	// RecvBufSize is the receive buffer capacity per connection. A single
	// unterminated line that fills this buffer causes the connection to be
	// closed without a reply.
	RecvBufSize = 2048

	// SendBufSize is the response buffer capacity per connection. A response
	// that would not fit is replaced with an output-overflow error.
	SendBufSize = 2048

	// MaxQueueNameLen is the queue name length, in bytes, at and above which
	// a name is rejected as too long.
	MaxQueueNameLen = 128

	// ConnPoolCap bounds the free-list of reusable connection records.
	ConnPoolCap = 1000
)
