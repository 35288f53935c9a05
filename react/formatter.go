// Package react implements the ReAct prompt grammar: a Formatter that turns
// tools, conversation history, and the in-progress reasoning trace into the
// next model input, and a Parser that classifies the model's reply as one
// reasoning step.
//
// Both are stateless and safe for concurrent use by any number of sessions.
package react

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tailored-agentic-units/react/core/protocol"
	"github.com/tailored-agentic-units/react/reasoning"
)

// Formatter renders the next model-input message sequence: one header
// message, the history unchanged, then the messages derived from steps. The
// kernel relies on that layout to write only step messages back to memory.
// Implementations must be deterministic for equal inputs.
type Formatter interface {
	Format(tools []protocol.Tool, history []protocol.Message, steps []reasoning.Step) []protocol.Message
}

const headerTemplate = `You are a helpful assistant that solves tasks by reasoning step by step and, when needed, using tools.

## Tools

You may call the tools below, one at a time, in whatever order the task requires.
%s
## Output Format

To use a tool, reply with exactly this format:

Thought: what you need to do next and why.
Action: the tool name, one of [%s].
Action Input: the tool arguments as a JSON object, e.g. {"a": 1, "b": 2}

Always begin with a Thought. Never wrap the Action Input in backticks.
Call a single tool per reply, then stop and wait. The result arrives as:

Observation: the tool output

Repeat Thought/Action/Action Input until you can answer. Then reply with one of:

Thought: I can answer without using any more tools.
Answer: the answer, in the same language as the question.

Thought: I cannot answer the question with the provided tools.
Answer: a short explanation.
`

// ReActFormatter produces a system header describing the tools and the
// reasoning grammar, followed by the conversation history and one message
// per reasoning step. Observation steps are rendered as user messages so the
// model reads them as external input.
type ReActFormatter struct {
	context string
}

// NewFormatter creates a ReActFormatter. A non-empty context is appended
// to the header as additional background for the model.
func NewFormatter(context string) *ReActFormatter {
	return &ReActFormatter{context: strings.TrimSpace(context)}
}

func (f *ReActFormatter) Format(tools []protocol.Tool, history []protocol.Message, steps []reasoning.Step) []protocol.Message {
	messages := make([]protocol.Message, 0, 1+len(history)+len(steps))
	messages = append(messages, protocol.NewMessage(protocol.RoleSystem, f.Header(tools)))
	messages = append(messages, history...)

	for _, step := range steps {
		role := protocol.RoleAssistant
		if _, ok := step.(reasoning.ObservationStep); ok {
			role = protocol.RoleUser
		}
		messages = append(messages, protocol.NewMessage(role, step.Content()))
	}

	return messages
}

// Header renders the system instructions for the given tools.
func (f *ReActFormatter) Header(tools []protocol.Tool) string {
	sorted := slices.Clone(tools)
	slices.SortFunc(sorted, func(a, b protocol.Tool) int {
		return strings.Compare(a.Name, b.Name)
	})

	var desc strings.Builder
	names := make([]string, 0, len(sorted))
	if len(sorted) == 0 {
		desc.WriteString("(no tools are available)\n")
	}
	for _, t := range sorted {
		fmt.Fprintf(&desc, "> Tool Name: %s\nTool Description: %s\nTool Args: %s\n\n", t.Name, t.Description, t.Schema())
		names = append(names, t.Name)
	}

	header := fmt.Sprintf(headerTemplate, desc.String(), strings.Join(names, ", "))
	if f.context != "" {
		header += "\n## Additional Context\n\n" + f.context + "\n"
	}
	return header
}
