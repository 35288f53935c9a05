package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/tailored-agentic-units/react/core/protocol"
)

// Anthropic streams completions from the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	cfg    Config
}

// NewAnthropic creates an Anthropic adapter.
func NewAnthropic(cfg *Config, apiKey string) *Anthropic {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Anthropic{client: anthropic.NewClient(opts...), cfg: *cfg}
}

func (a *Anthropic) Capabilities() Capabilities {
	return Capabilities{RetainsConversation: a.cfg.RetainsConversation}
}

func (a *Anthropic) Stream(ctx context.Context, messages []protocol.Message) (Stream, error) {
	system, turns := toAnthropicMessages(messages)
	if len(turns) == 0 {
		return nil, fmt.Errorf("anthropic: no user or assistant messages")
	}

	maxTokens := a.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.cfg.Model),
		Messages:  turns,
		MaxTokens: int64(maxTokens),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if a.cfg.Temperature != 0 {
		params.Temperature = anthropic.Float(float64(a.cfg.Temperature))
	}

	return &anthropicStream{stream: a.client.Messages.NewStreaming(ctx, params)}, nil
}

// toAnthropicMessages lifts system messages into the system prompt and
// folds the remaining sequence into strictly alternating user and assistant
// turns. Tool messages are sent as user input.
func toAnthropicMessages(messages []protocol.Message) (string, []anthropic.MessageParam) {
	var system []string
	type turn struct {
		assistant bool
		parts     []string
	}
	var turns []turn

	for _, msg := range messages {
		if msg.Role == protocol.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		assistant := msg.Role == protocol.RoleAssistant
		if n := len(turns); n > 0 && turns[n-1].assistant == assistant {
			turns[n-1].parts = append(turns[n-1].parts, msg.Content)
			continue
		}
		turns = append(turns, turn{assistant: assistant, parts: []string{msg.Content}})
	}

	// The API requires the conversation to open with a user turn.
	if len(turns) > 0 && turns[0].assistant {
		turns = append([]turn{{parts: []string{"Continue."}}}, turns...)
	}

	params := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		block := anthropic.NewTextBlock(strings.Join(t.parts, "\n\n"))
		if t.assistant {
			params = append(params, anthropic.NewAssistantMessage(block))
		} else {
			params = append(params, anthropic.NewUserMessage(block))
		}
	}
	return strings.Join(system, "\n\n"), params
}

type anthropicStream struct {
	stream *ssestream.Stream[anthropic.MessageStreamEventUnion]
	delta  string
}

func (s *anthropicStream) Next() bool {
	for s.stream.Next() {
		event := s.stream.Current()
		if event.Type != "content_block_delta" {
			continue
		}
		delta := event.AsContentBlockDelta().Delta
		if delta.Type == "text_delta" && delta.Text != "" {
			s.delta = delta.Text
			return true
		}
	}
	return false
}

func (s *anthropicStream) Delta() string { return s.delta }

func (s *anthropicStream) Err() error {
	if err := s.stream.Err(); err != nil {
		return fmt.Errorf("anthropic: %w", err)
	}
	return nil
}

func (s *anthropicStream) Close() error {
	return s.stream.Close()
}
