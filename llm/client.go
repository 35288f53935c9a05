// Package llm defines the streaming language-model contract the kernel
// drives, and adapters for hosted providers.
package llm

import (
	"context"

	"github.com/tailored-agentic-units/react/core/protocol"
)

// Capabilities describes provider behaviour the kernel must adapt to.
type Capabilities struct {
	// RetainsConversation reports that the provider keeps conversation
	// state between calls, so only the newest message needs to be sent.
	RetainsConversation bool
}

// Client starts streaming completions over a message sequence.
type Client interface {
	Stream(ctx context.Context, messages []protocol.Message) (Stream, error)
	Capabilities() Capabilities
}

// Stream is a pull-based sequence of text deltas. Next advances to the
// following delta and returns false at end of stream or on failure; Err
// distinguishes the two. Close releases the underlying transport and may be
// called at any point.
type Stream interface {
	Next() bool
	Delta() string
	Err() error
	Close() error
}

// Collect drains s and returns the concatenated text.
func Collect(s Stream) (string, error) {
	defer s.Close()

	var text []byte
	for s.Next() {
		text = append(text, s.Delta()...)
	}
	return string(text), s.Err()
}
