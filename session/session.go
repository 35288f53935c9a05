// Package session holds the per-key state a ReAct turn runs against: the
// persistent conversation memory, the reasoning trace and tool sources of
// the current turn, and the single pending-confirmation slot.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/react/core/protocol"
	"github.com/tailored-agentic-units/react/reasoning"
	"github.com/tailored-agentic-units/react/stream"
	"github.com/tailored-agentic-units/react/tools"
)

// Session is the mutable state of one conversation. Memory persists across
// turns; reasoning and sources are scoped to a single turn and cleared by
// Reset. Implementations must be safe for concurrent use.
type Session interface {
	// Key returns the caller-chosen session key.
	Key() string
	// ID returns the unique identifier of this in-process instance.
	ID() string

	// Append writes messages to the session's memory.
	Append(ctx context.Context, messages ...protocol.Message) error
	// Messages returns the full memory log. Repeated calls without an
	// intervening Append return equal sequences.
	Messages(ctx context.Context) ([]protocol.Message, error)

	// Reasoning returns a copy of the current turn's reasoning trace.
	Reasoning() []reasoning.Step
	// AddStep appends a step to the reasoning trace.
	AddStep(step reasoning.Step)
	// Sources returns a copy of the tool outputs gathered this turn.
	Sources() []tools.Output
	// AddSource records a successful tool output.
	AddSource(output tools.Output)
	// Reset clears the reasoning trace and sources. Memory is untouched.
	Reset()

	// AwaitConfirmation occupies the confirmation slot and returns the
	// channel the reply token will arrive on. Fails with
	// ErrConfirmationPending when the slot is taken.
	AwaitConfirmation(c Confirmation) (*stream.Channel[string], error)
	// Confirm delivers token to the pending confirmation and frees the slot.
	Confirm(token string) error
	// PendingConfirmation reports the confirmation awaiting a reply, if any.
	PendingConfirmation() (Confirmation, bool)
	// CancelConfirmation frees the slot without delivering a reply.
	CancelConfirmation()
}

// Confirmation describes a tool call awaiting user approval.
type Confirmation struct {
	ID          string
	Tool        string
	Arguments   map[string]any
	Description string
	CreatedAt   time.Time
}

// NewConfirmation creates a Confirmation with a fresh identifier.
func NewConfirmation(tool string, args map[string]any, description string) Confirmation {
	return Confirmation{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Tool:        tool,
		Arguments:   args,
		Description: description,
		CreatedAt:   time.Now(),
	}
}
