package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/react/core/protocol"
)

// Buffer is a session-scoped view of one key's log. The log is read from the
// Store once, on first use; afterwards reads never trigger I/O. Appends are
// written through to the Store before they become visible in the buffer, so
// a failed write leaves the buffer unchanged. All methods are safe for
// concurrent use.
type Buffer struct {
	store    Store
	key      string
	messages []protocol.Message
	loaded   bool
	mu       sync.RWMutex
}

// NewBuffer creates a Buffer for key backed by store.
func NewBuffer(store Store, key string) *Buffer {
	return &Buffer{store: store, key: key}
}

func (b *Buffer) Key() string {
	return b.key
}

// Load reads the log from the store if it has not been read yet.
func (b *Buffer) Load(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load(ctx)
}

func (b *Buffer) load(ctx context.Context) error {
	if b.loaded {
		return nil
	}
	messages, err := b.store.Load(ctx, b.key)
	if err != nil {
		return fmt.Errorf("load %s: %w", b.key, err)
	}
	b.messages = messages
	b.loaded = true
	return nil
}

// Append writes messages through to the store and then to the buffer.
func (b *Buffer) Append(ctx context.Context, messages ...protocol.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.load(ctx); err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}
	if err := b.store.Append(ctx, b.key, messages...); err != nil {
		return fmt.Errorf("append %s: %w", b.key, err)
	}
	b.messages = append(b.messages, messages...)
	return nil
}

// Messages returns a copy of the full log in append order.
func (b *Buffer) Messages(ctx context.Context) ([]protocol.Message, error) {
	b.mu.RLock()
	if b.loaded {
		defer b.mu.RUnlock()
		return slices.Clone(b.messages), nil
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.load(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(b.messages), nil
}

// Len returns the number of buffered messages. It is zero until the log has
// been loaded.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.messages)
}

// Clear deletes the log from the store and empties the buffer.
func (b *Buffer) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.store.Delete(ctx, b.key); err != nil {
		return fmt.Errorf("clear %s: %w", b.key, err)
	}
	b.messages = nil
	b.loaded = true
	return nil
}
