package session

import (
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tailored-agentic-units/react/memory"
)

// Manager maps session keys to Sessions, creating them on first use. Idle
// sessions beyond Config.MaxSessions are evicted least-recently-used first;
// an evicted session's memory stays in the store and is reloaded when the
// key is next used.
type Manager struct {
	store memory.Store
	cache *lru.Cache[string, Session]
	mu    sync.Mutex
}

// NewManager creates a Manager whose sessions share store.
func NewManager(store memory.Store, cfg *Config) (*Manager, error) {
	size := cfg.MaxSessions
	if size <= 0 {
		size = DefaultMaxSessions
	}
	cache, err := lru.New[string, Session](size)
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	return &Manager{store: store, cache: cache}, nil
}

// Get returns the Session for key, creating it if needed.
func (m *Manager) Get(key string) (Session, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if s, ok := m.cache.Get(key); ok {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.cache.Get(key); ok {
		return s, nil
	}
	s, err := New(key, m.store)
	if err != nil {
		return nil, err
	}
	m.cache.Add(key, s)
	return s, nil
}

// Peek returns the cached Session for key without creating it or updating
// its recency.
func (m *Manager) Peek(key string) (Session, bool) {
	return m.cache.Peek(key)
}

// Put caches s under its key, replacing any cached instance.
func (m *Manager) Put(s Session) {
	m.cache.Add(s.Key(), s)
}

// Remove drops key from the cache. Its memory is left in the store.
func (m *Manager) Remove(key string) {
	m.cache.Remove(key)
}

// Keys returns the cached session keys, sorted.
func (m *Manager) Keys() []string {
	keys := m.cache.Keys()
	sort.Strings(keys)
	return keys
}

func (m *Manager) Len() int {
	return m.cache.Len()
}
