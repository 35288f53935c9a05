package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/tailored-agentic-units/react/core/protocol"
)

type memoryStore struct {
	logs map[string][]protocol.Message
	mu   sync.RWMutex
}

// NewMemoryStore creates a Store held entirely in process memory.
func NewMemoryStore() Store {
	return &memoryStore{logs: make(map[string][]protocol.Message)}
}

func (s *memoryStore) Append(_ context.Context, key string, messages ...protocol.Message) error {
	if key == "" {
		return ErrEmptyKey
	}
	if len(messages) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[key] = append(s.logs[key], messages...)
	return nil
}

func (s *memoryStore) Load(_ context.Context, key string) ([]protocol.Message, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.logs[key]), nil
}

func (s *memoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.logs))
	for key := range s.logs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, key)
	return nil
}
