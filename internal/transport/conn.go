// Package transport provides the bidirectional text-line stream the bot
// pipeline reads raw IRC wire lines from and writes them back to.
package transport

import (
	"context"
	"errors"
)

// ErrClosed is returned by Send and Recv once the connection has been
// closed, either by Close or by the peer.
var ErrClosed = errors.New("transport: connection closed")

// Conn is a bidirectional stream of raw IRC wire lines. Implementations
// must allow Send to be called concurrently from multiple goroutines
// (the sender pool) while a single goroutine calls Recv in a loop (the
// receiver); Send itself must serialize concurrent callers internally,
// since the underlying socket only accepts one writer at a time.
type Conn interface {
	// Recv blocks for the next received text frame. A frame may hold
	// several CRLF-separated lines and is returned as received; splitting
	// it into lines is left to the caller. Returns ErrClosed once the
	// connection is gone.
	Recv(ctx context.Context) (string, error)
	// Send writes one line, appending CRLF. Safe for concurrent use.
	Send(ctx context.Context, line string) error
	// Close releases the underlying socket. Idempotent.
	Close() error
}
