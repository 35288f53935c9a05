package llm

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/tailored-agentic-units/react/core/protocol"
)

func TestToAnthropicMessages(t *testing.T) {
	system, turns := toAnthropicMessages([]protocol.Message{
		protocol.NewMessage(protocol.RoleSystem, "header"),
		protocol.NewMessage(protocol.RoleUser, "question"),
		protocol.NewMessage(protocol.RoleAssistant, "Thought: a\nAction: add\nAction Input: {}"),
		protocol.NewMessage(protocol.RoleTool, "5"),
		protocol.NewMessage(protocol.RoleUser, "Observation: 5"),
	})

	if system != "header" {
		t.Errorf("system = %q, want %q", system, "header")
	}

	wantRoles := []anthropic.MessageParamRole{
		anthropic.MessageParamRoleUser,
		anthropic.MessageParamRoleAssistant,
		anthropic.MessageParamRoleUser,
	}
	if len(turns) != len(wantRoles) {
		t.Fatalf("got %d turns, want %d", len(turns), len(wantRoles))
	}
	for i, turn := range turns {
		if turn.Role != wantRoles[i] {
			t.Errorf("turn %d role = %q, want %q", i, turn.Role, wantRoles[i])
		}
	}

	merged := turns[2].Content[0].OfText.Text
	if merged != "5\n\nObservation: 5" {
		t.Errorf("merged user turn = %q", merged)
	}
}

func TestToAnthropicMessages_LeadingAssistant(t *testing.T) {
	_, turns := toAnthropicMessages([]protocol.Message{
		protocol.NewMessage(protocol.RoleAssistant, "Thought: resume"),
	})

	if len(turns) != 2 || turns[0].Role != anthropic.MessageParamRoleUser {
		t.Errorf("turns = %+v, want a user turn inserted first", turns)
	}
}
