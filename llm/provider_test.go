package llm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/react/core/protocol"
	"github.com/tailored-agentic-units/react/llm"
)

func conversation() []protocol.Message {
	return []protocol.Message{
		protocol.NewMessage(protocol.RoleSystem, "You are a helpful assistant."),
		protocol.NewMessage(protocol.RoleUser, "2 + 2 = ?"),
	}
}

func sse(w http.ResponseWriter, event, data string) {
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func TestOpenAI_Stream(t *testing.T) {
	var request struct {
		Model    string `json:"model"`
		Stream   bool   `json:"stream"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Thought: easy\n", "Answer: ", "4"} {
			chunk, _ := json.Marshal(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion.chunk",
				"model":   "gpt-4o",
				"choices": []any{map[string]any{"index": 0, "delta": map[string]any{"content": part}}},
			})
			sse(w, "", string(chunk))
		}
		sse(w, "", "[DONE]")
	}))
	defer srv.Close()

	client, err := llm.New(&llm.Config{
		Provider: llm.ProviderOpenAI,
		Model:    "gpt-4o",
		APIKey:   "sk-test",
		BaseURL:  srv.URL + "/v1",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s, err := client.Stream(context.Background(), conversation())
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	var deltas []string
	for s.Next() {
		deltas = append(deltas, s.Delta())
	}
	s.Close()
	if err := s.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	if len(deltas) != 3 || strings.Join(deltas, "") != "Thought: easy\nAnswer: 4" {
		t.Errorf("deltas = %q", deltas)
	}
	if request.Model != "gpt-4o" || !request.Stream {
		t.Errorf("request = %+v, want streaming gpt-4o", request)
	}
	if len(request.Messages) != 2 || request.Messages[0].Role != "system" || request.Messages[1].Role != "user" {
		t.Errorf("request messages = %+v", request.Messages)
	}
}

func TestOpenAI_StreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	client, _ := llm.New(&llm.Config{Model: "gpt-4o", APIKey: "bad", BaseURL: srv.URL + "/v1"})

	if _, err := client.Stream(context.Background(), conversation()); err == nil {
		t.Error("Stream() should fail on HTTP 401")
	}
}

func TestAnthropic_Stream(t *testing.T) {
	var request struct {
		Model    string `json:"model"`
		System   []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		sse(w, "message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude-sonnet-4-5","stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":1}}}`)
		sse(w, "content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		for _, part := range []string{"Thought: easy\n", "Answer: 4"} {
			delta, _ := json.Marshal(map[string]any{
				"type":  "content_block_delta",
				"index": 0,
				"delta": map[string]any{"type": "text_delta", "text": part},
			})
			sse(w, "content_block_delta", string(delta))
		}
		sse(w, "content_block_stop", `{"type":"content_block_stop","index":0}`)
		sse(w, "message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":5}}`)
		sse(w, "message_stop", `{"type":"message_stop"}`)
	}))
	defer srv.Close()

	client, err := llm.New(&llm.Config{
		Provider: llm.ProviderAnthropic,
		Model:    "claude-sonnet-4-5",
		APIKey:   "sk-ant",
		BaseURL:  srv.URL,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s, err := client.Stream(context.Background(), conversation())
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	text, err := llm.Collect(s)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if text != "Thought: easy\nAnswer: 4" {
		t.Errorf("text = %q", text)
	}
	if len(request.System) != 1 || request.System[0].Text != "You are a helpful assistant." {
		t.Errorf("system = %+v, want the system message lifted", request.System)
	}
	if len(request.Messages) != 1 || request.Messages[0].Role != "user" {
		t.Errorf("messages = %+v, want one user turn", request.Messages)
	}
}
