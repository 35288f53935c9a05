package session

// DefaultMaxSessions bounds the number of idle sessions a Manager retains.
const DefaultMaxSessions = 1024

// Config holds session manager parameters.
type Config struct {
	MaxSessions int `json:"max_sessions,omitempty" yaml:"max_sessions,omitempty"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{MaxSessions: DefaultMaxSessions}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.MaxSessions > 0 {
		c.MaxSessions = source.MaxSessions
	}
}
