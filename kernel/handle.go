package kernel

import (
	"context"

	"github.com/tailored-agentic-units/react/reasoning"
	"github.com/tailored-agentic-units/react/stream"
	"github.com/tailored-agentic-units/react/tools"
)

// Result holds the outcome of a completed turn.
type Result struct {
	Response   string           // Final answer text.
	Sources    []tools.Output   // Tool outputs gathered during the turn, in call order.
	Reasoning  []reasoning.Step // The turn's reasoning trace, ending with the answer.
	Iterations int              // Number of model calls made.
}

// Handle is the caller's view of a running turn.
type Handle struct {
	kernel *Kernel
	key    string
	runID  string
	events *stream.Channel[Event]
	cancel context.CancelFunc
	done   chan struct{}

	result *Result
	err    error
}

// Events returns the turn's event stream. It is closed when the turn ends;
// a successful turn's last event is Stop.
func (h *Handle) Events() <-chan Event {
	return h.events.C()
}

// Wait blocks until the turn ends or ctx is done. A turn that failed or was
// cancelled returns no result.
func (h *Handle) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed when the turn ends.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Respond answers the turn's pending confirmation.
func (h *Handle) Respond(token string) error {
	return h.kernel.Respond(h.key, token)
}

// Cancel abandons the turn. Messages already written to memory are kept.
func (h *Handle) Cancel() {
	h.cancel()
}

// Key returns the session key the turn runs against.
func (h *Handle) Key() string {
	return h.key
}

// RunID returns the unique identifier of the turn.
func (h *Handle) RunID() string {
	return h.runID
}
