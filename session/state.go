package session

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/react/core/protocol"
	"github.com/tailored-agentic-units/react/memory"
	"github.com/tailored-agentic-units/react/reasoning"
	"github.com/tailored-agentic-units/react/stream"
	"github.com/tailored-agentic-units/react/tools"
)

type pending struct {
	confirmation Confirmation
	reply        *stream.Channel[string]
}

type state struct {
	id        string
	buffer    *memory.Buffer
	reasoning []reasoning.Step
	sources   []tools.Output
	pending   *pending
	mu        sync.RWMutex
}

// New creates a Session whose memory is key's log in store. The log is read
// lazily on first access.
func New(key string, store memory.Store) (Session, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return &state{
		id:     uuid.Must(uuid.NewV7()).String(),
		buffer: memory.NewBuffer(store, key),
	}, nil
}

func (s *state) Key() string {
	return s.buffer.Key()
}

func (s *state) ID() string {
	return s.id
}

func (s *state) Append(ctx context.Context, messages ...protocol.Message) error {
	return s.buffer.Append(ctx, messages...)
}

func (s *state) Messages(ctx context.Context) ([]protocol.Message, error) {
	return s.buffer.Messages(ctx)
}

func (s *state) Reasoning() []reasoning.Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.reasoning)
}

func (s *state) AddStep(step reasoning.Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reasoning = append(s.reasoning, step)
}

func (s *state) Sources() []tools.Output {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sources)
}

func (s *state) AddSource(output tools.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, output)
}

func (s *state) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reasoning = nil
	s.sources = nil
}

func (s *state) AwaitConfirmation(c Confirmation) (*stream.Channel[string], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		return nil, ErrConfirmationPending
	}
	reply := stream.New[string](context.Background(), 1)
	s.pending = &pending{confirmation: c, reply: reply}
	return reply, nil
}

func (s *state) Confirm(token string) error {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	s.mu.Unlock()

	if p == nil {
		return ErrNoPendingConfirmation
	}
	p.reply.TrySend(token)
	p.reply.Close()
	return nil
}

func (s *state) PendingConfirmation() (Confirmation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pending == nil {
		return Confirmation{}, false
	}
	return s.pending.confirmation, true
}

func (s *state) CancelConfirmation() {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	s.mu.Unlock()

	if p != nil {
		p.reply.Close()
	}
}
