package memory

import (
	"fmt"
	"path/filepath"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
)

// Config holds memory store initialization parameters.
type Config struct {
	Backend string      `json:"backend,omitempty" yaml:"backend,omitempty"`
	Path    string      `json:"path,omitempty" yaml:"path,omitempty"` // file directory or SQLite database file
	DSN     string      `json:"dsn,omitempty" yaml:"dsn,omitempty"`   // MySQL data source name
	Redis   RedisConfig `json:"redis,omitzero" yaml:"redis,omitempty"`
}

// RedisConfig describes the Redis connection used by the redis backend.
type RedisConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// DefaultConfig returns the default memory configuration: an in-process
// store that lives as long as the kernel.
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		Redis:   RedisConfig{Prefix: DefaultRedisPrefix},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.DSN != "" {
		c.DSN = source.DSN
	}
	if source.Redis.Addr != "" {
		c.Redis.Addr = source.Redis.Addr
	}
	if source.Redis.Password != "" {
		c.Redis.Password = source.Redis.Password
	}
	if source.Redis.DB != 0 {
		c.Redis.DB = source.Redis.DB
	}
	if source.Redis.Prefix != "" {
		c.Redis.Prefix = source.Redis.Prefix
	}
}

// NewStore creates the Store selected by cfg.Backend. An empty backend
// selects the in-process store.
func NewStore(cfg *Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("%s backend requires path", BackendFile)
		}
		return NewFileStore(cfg.Path), nil
	case BackendSQLite:
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		} else if filepath.Ext(path) == "" {
			path = filepath.Join(path, "memory.db")
		}
		return open(NewSQLiteStore(path))
	case BackendMySQL:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("%s backend requires dsn", BackendMySQL)
		}
		return open(NewMySQLStore(cfg.DSN))
	case BackendRedis:
		return open(NewRedisStore(cfg.Redis))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// open converts a concrete constructor result into a Store without leaking
// a typed nil on failure.
func open[S Store](s S, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
