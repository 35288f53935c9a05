// Package memory persists conversation history. Each session key owns an
// append-only log of messages; a Store implementation provides the durable
// backend and a Buffer provides a session-scoped, lazily loaded view of one
// key's log.
package memory

import (
	"context"

	"github.com/tailored-agentic-units/react/core/protocol"
)

// Store is a keyed, append-only message log. Implementations perform I/O on
// each call without caching and are safe for concurrent use.
type Store interface {
	// Append adds messages to the end of key's log.
	Append(ctx context.Context, key string, messages ...protocol.Message) error
	// Load returns key's log in append order. A key that was never written
	// yields an empty log.
	Load(ctx context.Context, key string) ([]protocol.Message, error)
	// Keys returns every key that has at least one message, sorted.
	Keys(ctx context.Context) ([]string, error)
	// Delete removes key's log. Missing keys are ignored.
	Delete(ctx context.Context, key string) error
}
