package llm

import (
	"fmt"
	"os"
)

// Provider names accepted by Config.Provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const (
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 4096
)

// Environment variables consulted when Config.APIKey is empty.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
)

// Config selects and parameterises a provider adapter.
type Config struct {
	Provider            string  `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model               string  `json:"model,omitempty" yaml:"model,omitempty"`
	APIKey              string  `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL             string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	MaxTokens           int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Temperature         float32 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	RetainsConversation bool    `json:"retains_conversation,omitempty" yaml:"retains_conversation,omitempty"`
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		Provider:  ProviderOpenAI,
		Model:     DefaultModel,
		MaxTokens: DefaultMaxTokens,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Provider != "" {
		c.Provider = source.Provider
	}
	if source.Model != "" {
		c.Model = source.Model
	}
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.MaxTokens > 0 {
		c.MaxTokens = source.MaxTokens
	}
	if source.Temperature != 0 {
		c.Temperature = source.Temperature
	}
	if source.RetainsConversation {
		c.RetainsConversation = true
	}
}

// New creates the Client selected by cfg.Provider.
func New(cfg *Config) (Client, error) {
	if cfg.Model == "" {
		return nil, ErrMissingModel
	}

	switch cfg.Provider {
	case "", ProviderOpenAI:
		key := apiKey(cfg.APIKey, EnvOpenAIKey)
		if key == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("%w: set api_key or %s", ErrMissingAPIKey, EnvOpenAIKey)
		}
		return NewOpenAI(cfg, key), nil
	case ProviderAnthropic:
		key := apiKey(cfg.APIKey, EnvAnthropicKey)
		if key == "" {
			return nil, fmt.Errorf("%w: set api_key or %s", ErrMissingAPIKey, EnvAnthropicKey)
		}
		return NewAnthropic(cfg, key), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

func apiKey(configured, env string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv(env)
}
