// Package stream provides a buffered, context-aware channel used to deliver
// turn events and confirmation replies between the loop goroutine and its
// caller.
package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Send after the channel has been closed.
var ErrClosed = errors.New("channel closed")

// Channel is a buffered channel whose sends respect both a per-call context
// and the context the channel was created with. Close is idempotent and
// safe to call concurrently with Send.
type Channel[T any] struct {
	channel    chan T
	context    context.Context
	bufferSize int
	closed     atomic.Bool
	mu         sync.RWMutex
}

// New creates a Channel bound to ctx. A negative bufferSize is treated as 0.
func New[T any](ctx context.Context, bufferSize int) *Channel[T] {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &Channel[T]{
		channel:    make(chan T, bufferSize),
		context:    ctx,
		bufferSize: bufferSize,
	}
}

// Send delivers value, blocking while the buffer is full.
func (c *Channel[T]) Send(ctx context.Context, value T) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed.Load() {
		return ErrClosed
	}

	select {
	case c.channel <- value:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.context.Done():
		return c.context.Err()
	}
}

// TrySend delivers value only if buffer space is available.
func (c *Channel[T]) TrySend(value T) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed.Load() {
		return false
	}

	select {
	case c.channel <- value:
		return true
	default:
		return false
	}
}

// Receive blocks until a value arrives, the channel is closed, or a context
// ends. A closed and drained channel returns ErrClosed.
func (c *Channel[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	select {
	case value, ok := <-c.channel:
		if !ok {
			return zero, ErrClosed
		}
		return value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-c.context.Done():
		return zero, c.context.Err()
	}
}

// TryReceive returns a buffered value without blocking.
func (c *Channel[T]) TryReceive() (T, bool) {
	select {
	case value, ok := <-c.channel:
		return value, ok
	default:
		var zero T
		return zero, false
	}
}

// C exposes the receive side for use in select statements and range loops.
func (c *Channel[T]) C() <-chan T {
	return c.channel
}

// Close closes the channel. Buffered values remain readable.
func (c *Channel[T]) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.mu.Lock()
		close(c.channel)
		c.mu.Unlock()
	}
}

func (c *Channel[T]) IsClosed() bool {
	return c.closed.Load()
}

func (c *Channel[T]) BufferSize() int {
	return c.bufferSize
}

func (c *Channel[T]) QueueLength() int {
	return len(c.channel)
}
