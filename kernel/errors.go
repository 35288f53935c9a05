package kernel

import (
	"errors"
	"fmt"

	"github.com/tailored-agentic-units/react/session"
)

var (
	// ErrMaxIterations is returned when a turn exhausts a non-zero
	// iteration budget without the model producing a final answer.
	ErrMaxIterations = errors.New("max iterations reached")

	// ErrTurnInProgress is returned by Run when the session key already has
	// a turn in flight.
	ErrTurnInProgress = errors.New("turn already in progress")

	// ErrNoPendingConfirmation is returned by Respond when the session is
	// not waiting on a confirmation.
	ErrNoPendingConfirmation = session.ErrNoPendingConfirmation
)

// The errors below are recovered inside the loop. Their text is what the
// model reads back as an observation.

// UnknownToolError reports an action naming a tool that is not registered.
type UnknownToolError struct {
	Tool string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("Tool %s does not exist", e.Tool)
}

// ConfirmationDeclinedError reports a confirm-required call that did not
// receive the affirmative token.
type ConfirmationDeclinedError struct {
	Tool string
}

func (e *ConfirmationDeclinedError) Error() string {
	return fmt.Sprintf("Error calling tool %s: failed to get confirmation", e.Tool)
}

// ToolInvocationError wraps a failure that escaped the tool executor.
type ToolInvocationError struct {
	Tool string
	Err  error
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("Error calling tool %s: %v", e.Tool, e.Err)
}

func (e *ToolInvocationError) Unwrap() error {
	return e.Err
}

func parseObservation(err error) string {
	return fmt.Sprintf("There was an error in parsing my reasoning: %v", err)
}
