// Package reasoning defines the steps a ReAct turn records while the model
// alternates between thinking, acting, and observing.
//
// Step is a closed set: ActionStep, ObservationStep, and ResponseStep are its
// only implementations, so a type switch over them is exhaustive.
package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Step is one unit of the model's reasoning within a turn.
type Step interface {
	// Content renders the step in the ReAct text grammar.
	Content() string
	// IsDone reports whether the step terminates the turn.
	IsDone() bool

	step()
}

// ActionStep requests a tool call.
type ActionStep struct {
	Thought string
	Action  string
	Input   json.RawMessage
}

func (s ActionStep) Content() string {
	input := string(s.Input)
	if input == "" {
		input = "{}"
	}
	return fmt.Sprintf("Thought: %s\nAction: %s\nAction Input: %s", s.Thought, s.Action, input)
}

func (ActionStep) IsDone() bool { return false }

// Arguments decodes Input into a map. An empty input yields an empty map.
func (s ActionStep) Arguments() (map[string]any, error) {
	args := map[string]any{}
	if len(s.Input) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(s.Input, &args); err != nil {
		return nil, err
	}
	return args, nil
}

// ObservationStep records a tool result or an error description.
type ObservationStep struct {
	Observation string
}

func (s ObservationStep) Content() string {
	return "Observation: " + s.Observation
}

func (ObservationStep) IsDone() bool { return false }

// ResponseStep carries the final answer of a turn.
type ResponseStep struct {
	Thought  string
	Response string
}

func (s ResponseStep) Content() string {
	return fmt.Sprintf("Thought: %s\nAnswer: %s", s.Thought, s.Response)
}

func (ResponseStep) IsDone() bool { return true }

func (ActionStep) step()      {}
func (ObservationStep) step() {}
func (ResponseStep) step()    {}

// Kind names the variant of a step ("action", "observation", "response").
func Kind(s Step) string {
	switch s.(type) {
	case ActionStep, *ActionStep:
		return "action"
	case ObservationStep, *ObservationStep:
		return "observation"
	case ResponseStep, *ResponseStep:
		return "response"
	default:
		return "unknown"
	}
}

// Transcript joins the rendered content of steps, one per paragraph.
func Transcript(steps []Step) string {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		parts = append(parts, s.Content())
	}
	return strings.Join(parts, "\n\n")
}
