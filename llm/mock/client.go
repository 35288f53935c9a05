// Package mock provides a scripted llm.Client for tests and offline runs.
package mock

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/tailored-agentic-units/react/core/protocol"
	"github.com/tailored-agentic-units/react/llm"
)

// ErrExhausted is returned by Stream once every scripted reply was used.
var ErrExhausted = errors.New("mock: no scripted replies left")

// Reply is one scripted model call. Err fails the call outright; StreamErr
// fails the stream after all of Text has been delivered.
type Reply struct {
	Text      string
	Err       error
	StreamErr error
}

// Client replays scripted replies in order, splitting each into deltas, and
// records every message sequence it was called with.
type Client struct {
	replies   []Reply
	chunkSize int
	delay     time.Duration
	caps      llm.Capabilities
	calls     [][]protocol.Message
	mu        sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithReplies scripts plain text replies.
func WithReplies(texts ...string) Option {
	return func(c *Client) {
		for _, t := range texts {
			c.replies = append(c.replies, Reply{Text: t})
		}
	}
}

// WithScript scripts replies that may fail.
func WithScript(replies ...Reply) Option {
	return func(c *Client) {
		c.replies = append(c.replies, replies...)
	}
}

// WithChunkSize sets how many runes each delta carries. Defaults to 8.
func WithChunkSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithDelay pauses before each delta.
func WithDelay(d time.Duration) Option {
	return func(c *Client) {
		c.delay = d
	}
}

// WithRetainsConversation sets the reported provider capability.
func WithRetainsConversation(retains bool) Option {
	return func(c *Client) {
		c.caps.RetainsConversation = retains
	}
}

// New creates a scripted Client.
func New(opts ...Option) *Client {
	c := &Client{chunkSize: 8}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Capabilities() llm.Capabilities {
	return c.caps
}

func (c *Client) Stream(ctx context.Context, messages []protocol.Message) (llm.Stream, error) {
	c.mu.Lock()
	c.calls = append(c.calls, slices.Clone(messages))
	if len(c.replies) == 0 {
		c.mu.Unlock()
		return nil, ErrExhausted
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	c.mu.Unlock()

	if reply.Err != nil {
		return nil, reply.Err
	}
	return &stream{
		ctx:    ctx,
		deltas: split(reply.Text, c.chunkSize),
		final:  reply.StreamErr,
		delay:  c.delay,
	}, nil
}

// Calls returns the message sequences passed to Stream, in call order.
func (c *Client) Calls() [][]protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	calls := make([][]protocol.Message, len(c.calls))
	for i, call := range c.calls {
		calls[i] = slices.Clone(call)
	}
	return calls
}

// Remaining reports how many scripted replies are unused.
func (c *Client) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.replies)
}

func split(text string, size int) []string {
	runes := []rune(text)
	deltas := make([]string, 0, len(runes)/size+1)
	for len(runes) > 0 {
		n := min(size, len(runes))
		deltas = append(deltas, string(runes[:n]))
		runes = runes[n:]
	}
	return deltas
}

type stream struct {
	ctx    context.Context
	deltas []string
	delta  string
	final  error
	err    error
	delay  time.Duration
	closed bool
}

func (s *stream) Next() bool {
	if s.closed || s.err != nil {
		return false
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-s.ctx.Done():
		}
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}
	if len(s.deltas) == 0 {
		s.err = s.final
		return false
	}
	s.delta = s.deltas[0]
	s.deltas = s.deltas[1:]
	return true
}

func (s *stream) Delta() string { return s.delta }
func (s *stream) Err() error    { return s.err }

func (s *stream) Close() error {
	s.closed = true
	return nil
}
