package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/tailored-agentic-units/react/core/protocol"
)

// OpenAI streams chat completions from the OpenAI API or any server that
// speaks its protocol.
type OpenAI struct {
	client *openai.Client
	cfg    Config
}

// NewOpenAI creates an OpenAI adapter. A non-empty cfg.BaseURL points the
// client at a compatible server.
func NewOpenAI(cfg *Config, apiKey string) *OpenAI {
	oc := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(oc), cfg: *cfg}
}

func (o *OpenAI) Capabilities() Capabilities {
	return Capabilities{RetainsConversation: o.cfg.RetainsConversation}
}

func (o *OpenAI) Stream(ctx context.Context, messages []protocol.Message) (Stream, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.cfg.Model,
		Messages:    toOpenAIMessages(messages),
		Stream:      true,
		Temperature: o.cfg.Temperature,
	}
	if o.cfg.MaxTokens > 0 {
		req.MaxTokens = o.cfg.MaxTokens
	}

	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return &openAIStream{stream: stream}, nil
}

func toOpenAIMessages(messages []protocol.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case protocol.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case protocol.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		result = append(result, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return result
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
	delta  string
	err    error
	done   bool
}

func (s *openAIStream) Next() bool {
	for !s.done {
		resp, err := s.stream.Recv()
		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) {
				s.err = fmt.Errorf("openai: %w", err)
			}
			return false
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		s.delta = resp.Choices[0].Delta.Content
		return true
	}
	return false
}

func (s *openAIStream) Delta() string { return s.delta }
func (s *openAIStream) Err() error    { return s.err }

func (s *openAIStream) Close() error {
	s.done = true
	return s.stream.Close()
}
