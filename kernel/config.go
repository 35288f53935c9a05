package kernel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/react/llm"
	"github.com/tailored-agentic-units/react/memory"
	"github.com/tailored-agentic-units/react/session"
)

const (
	// DefaultConfirmToken is the reply that approves a confirm-required call.
	DefaultConfirmToken = "y"
	// DefaultEventBuffer is the capacity of a turn's event channel.
	DefaultEventBuffer = 64
)

// ToolsConfig controls tool execution policy.
type ToolsConfig struct {
	// Confirm names tools that need an affirmative reply before running.
	Confirm      []string `json:"confirm,omitempty" yaml:"confirm,omitempty"`
	ConfirmToken string   `json:"confirm_token,omitempty" yaml:"confirm_token,omitempty"`
}

// Config holds initialization parameters for all kernel subsystems.
// Each subsystem section delegates to that subsystem's config-driven constructor.
type Config struct {
	LLM           llm.Config     `json:"llm" yaml:"llm"`
	Session       session.Config `json:"session" yaml:"session"`
	Memory        memory.Config  `json:"memory" yaml:"memory"`
	Tools         ToolsConfig    `json:"tools" yaml:"tools"`
	Observers     []string       `json:"observers,omitempty" yaml:"observers,omitempty"`
	EventBuffer   int            `json:"event_buffer,omitempty" yaml:"event_buffer,omitempty"`
	MaxIterations int            `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"` // 0 runs until an answer
	ExtraContext  string         `json:"extra_context,omitempty" yaml:"extra_context,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		LLM:         llm.DefaultConfig(),
		Session:     session.DefaultConfig(),
		Memory:      memory.DefaultConfig(),
		Tools:       ToolsConfig{ConfirmToken: DefaultConfirmToken},
		EventBuffer: DefaultEventBuffer,
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.LLM.Merge(&source.LLM)
	c.Session.Merge(&source.Session)
	c.Memory.Merge(&source.Memory)

	if len(source.Tools.Confirm) > 0 {
		c.Tools.Confirm = source.Tools.Confirm
	}
	if source.Tools.ConfirmToken != "" {
		c.Tools.ConfirmToken = source.Tools.ConfirmToken
	}
	if len(source.Observers) > 0 {
		c.Observers = source.Observers
	}
	if source.EventBuffer > 0 {
		c.EventBuffer = source.EventBuffer
	}
	if source.MaxIterations > 0 {
		c.MaxIterations = source.MaxIterations
	}
	if source.ExtraContext != "" {
		c.ExtraContext = source.ExtraContext
	}
}

// LoadConfig reads a JSON or YAML (.yaml, .yml) config file, merges it with
// defaults, and returns the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
