package kernel

import "github.com/tailored-agentic-units/react/core/protocol"

// Event is a notification a turn sends to its caller. The set is closed:
// InputPrepared, StreamDelta, ToolResult, ConfirmationRequested and Stop.
// Callers handle it with a type switch.
type Event interface {
	event()
}

// InputPrepared carries the message sequence about to be sent to the model.
type InputPrepared struct {
	Messages []protocol.Message
}

// StreamDelta carries one fragment of model output, in arrival order.
type StreamDelta struct {
	Text string
}

// ToolResult carries the output of a completed tool call.
type ToolResult struct {
	Tool   string
	Output string
}

// ConfirmationRequested announces that the turn is suspended until the
// caller answers through Respond.
type ConfirmationRequested struct {
	ID          string
	Tool        string
	Arguments   map[string]any
	Description string
}

// Stop is the last event of a successful turn.
type Stop struct{}

func (InputPrepared) event()         {}
func (StreamDelta) event()           {}
func (ToolResult) event()            {}
func (ConfirmationRequested) event() {}
func (Stop) event()                  {}
