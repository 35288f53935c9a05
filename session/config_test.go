package session_test

import (
	"testing"

	"github.com/tailored-agentic-units/react/session"
)

func TestDefaultConfig(t *testing.T) {
	cfg := session.DefaultConfig()

	if cfg.MaxSessions != session.DefaultMaxSessions {
		t.Errorf("got MaxSessions %d, want %d", cfg.MaxSessions, session.DefaultMaxSessions)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := session.DefaultConfig()

	cfg.Merge(&session.Config{MaxSessions: 8})
	if cfg.MaxSessions != 8 {
		t.Errorf("got MaxSessions %d, want 8", cfg.MaxSessions)
	}

	cfg.Merge(&session.Config{})
	if cfg.MaxSessions != 8 {
		t.Errorf("got MaxSessions %d, want 8 (preserved)", cfg.MaxSessions)
	}
}
