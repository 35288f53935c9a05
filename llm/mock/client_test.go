package mock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tailored-agentic-units/react/core/protocol"
	"github.com/tailored-agentic-units/react/llm"
	"github.com/tailored-agentic-units/react/llm/mock"
)

func TestClient_StreamsScriptedReplies(t *testing.T) {
	c := mock.New(mock.WithReplies("Thought: done\nAnswer: 4", "second"), mock.WithChunkSize(3))
	msgs := []protocol.Message{protocol.NewMessage(protocol.RoleUser, "2 + 2 = ?")}

	s, err := c.Stream(context.Background(), msgs)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	var deltas []string
	for s.Next() {
		deltas = append(deltas, s.Delta())
	}
	if s.Err() != nil {
		t.Fatalf("Err() = %v", s.Err())
	}

	var text string
	for _, d := range deltas {
		if len([]rune(d)) > 3 {
			t.Errorf("delta %q exceeds chunk size", d)
		}
		text += d
	}
	if text != "Thought: done\nAnswer: 4" {
		t.Errorf("deltas assemble to %q", text)
	}

	second, _ := c.Stream(context.Background(), msgs)
	got, _ := llm.Collect(second)
	if got != "second" {
		t.Errorf("second reply = %q, want %q", got, "second")
	}

	if _, err := c.Stream(context.Background(), msgs); !errors.Is(err, mock.ErrExhausted) {
		t.Errorf("Stream() after script error = %v, want ErrExhausted", err)
	}

	if calls := c.Calls(); len(calls) != 3 || calls[0][0].Content != "2 + 2 = ?" {
		t.Errorf("Calls() = %v", calls)
	}
}

func TestClient_ScriptedFailures(t *testing.T) {
	transport := errors.New("connection reset")
	c := mock.New(mock.WithScript(
		mock.Reply{Err: transport},
		mock.Reply{Text: "partial", StreamErr: transport},
	))

	if _, err := c.Stream(context.Background(), nil); !errors.Is(err, transport) {
		t.Errorf("Stream() error = %v, want %v", err, transport)
	}

	s, _ := c.Stream(context.Background(), nil)
	text, err := llm.Collect(s)
	if text != "partial" || !errors.Is(err, transport) {
		t.Errorf("Collect() = %q, %v, want partial text and stream error", text, err)
	}
}

func TestClient_RespectsCancellation(t *testing.T) {
	c := mock.New(mock.WithReplies("a long reply that never finishes"), mock.WithChunkSize(1), mock.WithDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())

	s, _ := c.Stream(ctx, nil)
	cancel()

	if s.Next() {
		t.Error("Next() should stop after cancellation")
	}
	if !errors.Is(s.Err(), context.Canceled) {
		t.Errorf("Err() = %v, want context.Canceled", s.Err())
	}
}

func TestClient_Capabilities(t *testing.T) {
	if mock.New().Capabilities().RetainsConversation {
		t.Error("default client should not retain conversation")
	}
	if !mock.New(mock.WithRetainsConversation(true)).Capabilities().RetainsConversation {
		t.Error("WithRetainsConversation(true) not reflected")
	}
}
