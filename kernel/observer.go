package kernel

import "github.com/tailored-agentic-units/react/observability"

// Kernel event types emitted during a turn.
const (
	EventTurnStart       observability.EventType = "kernel.turn.start"
	EventPrompt          observability.EventType = "kernel.prompt"
	EventModelComplete   observability.EventType = "kernel.model.complete"
	EventParseError      observability.EventType = "kernel.parse.error"
	EventToolCall        observability.EventType = "kernel.tool.call"
	EventToolComplete    observability.EventType = "kernel.tool.complete"
	EventToolUnknown     observability.EventType = "kernel.tool.unknown"
	EventConfirmRequest  observability.EventType = "kernel.confirm.request"
	EventConfirmResponse observability.EventType = "kernel.confirm.response"
	EventTurnComplete    observability.EventType = "kernel.turn.complete"
	EventError           observability.EventType = "kernel.error"
)
