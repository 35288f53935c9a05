// Package kernel implements the ReAct control loop: a per-turn state machine
// that formats the conversation, streams the model's reply, parses it into a
// reasoning step, and either runs the requested tool (after confirmation
// when the tool demands it) or finishes with an answer.
//
// The kernel initializes from configuration via New. Functional options
// replace any subsystem, which is how tests inject scripted models.
//
//	k, err := kernel.New(&cfg)
//	h, err := k.Run(ctx, "session-1", "What's 2 + 2?")
//	for ev := range h.Events() { ... }
//	result, err := h.Wait(ctx)
package kernel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/react/core/protocol"
	"github.com/tailored-agentic-units/react/llm"
	"github.com/tailored-agentic-units/react/memory"
	"github.com/tailored-agentic-units/react/observability"
	"github.com/tailored-agentic-units/react/react"
	"github.com/tailored-agentic-units/react/session"
	"github.com/tailored-agentic-units/react/stream"
	"github.com/tailored-agentic-units/react/tools"
)

// ToolExecutor abstracts tool listing and execution. *tools.Registry
// satisfies it. Execute must encode tool failures in the returned Output;
// an error is reserved for calls that could not be dispatched at all.
type ToolExecutor interface {
	List() []protocol.Tool
	Lookup(name string) (protocol.Tool, bool)
	RequiresConfirmation(name string) bool
	Execute(ctx context.Context, name string, args json.RawMessage) (tools.Output, error)
}

// Option configures a Kernel. Options take precedence over Config: a
// subsystem supplied by an option is not built from configuration.
type Option func(*Kernel)

// WithClient overrides the config-created model client.
func WithClient(c llm.Client) Option {
	return func(k *Kernel) { k.client = c }
}

// WithToolExecutor overrides the default empty tool registry.
func WithToolExecutor(e ToolExecutor) Option {
	return func(k *Kernel) { k.tools = e }
}

// WithMemoryStore overrides the config-created memory store.
func WithMemoryStore(s memory.Store) Option {
	return func(k *Kernel) { k.store = s }
}

// WithObserver overrides the config-resolved observer.
func WithObserver(o observability.Observer) Option {
	return func(k *Kernel) { k.observer = o }
}

// WithFormatter overrides the ReAct prompt formatter.
func WithFormatter(f react.Formatter) Option {
	return func(k *Kernel) { k.formatter = f }
}

// WithParser overrides the ReAct output parser.
func WithParser(p react.Parser) Option {
	return func(k *Kernel) { k.parser = p }
}

// Kernel runs ReAct turns against independent sessions. It is safe for
// concurrent use across session keys; a key accepts one turn at a time.
type Kernel struct {
	client    llm.Client
	tools     ToolExecutor
	store     memory.Store
	sessions  *session.Manager
	formatter react.Formatter
	parser    react.Parser
	observer  observability.Observer

	confirm       map[string]bool
	confirmToken  string
	eventBuffer   int
	maxIterations int

	active map[string]session.Session
	mu     sync.Mutex
}

// New creates a Kernel from configuration. Subsystems (model client, memory
// store, observers) are initialized from their config sections unless an
// option already supplied them.
func New(cfg *Config, opts ...Option) (*Kernel, error) {
	k := &Kernel{
		confirm:       make(map[string]bool, len(cfg.Tools.Confirm)),
		confirmToken:  cfg.Tools.ConfirmToken,
		eventBuffer:   cfg.EventBuffer,
		maxIterations: cfg.MaxIterations,
		active:        make(map[string]session.Session),
	}
	for _, name := range cfg.Tools.Confirm {
		k.confirm[name] = true
	}
	if k.confirmToken == "" {
		k.confirmToken = DefaultConfirmToken
	}

	for _, opt := range opts {
		opt(k)
	}

	if k.client == nil {
		client, err := llm.New(&cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to create model client: %w", err)
		}
		k.client = client
	}

	if k.store == nil {
		store, err := memory.NewStore(&cfg.Memory)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory store: %w", err)
		}
		k.store = store
	}

	if k.observer == nil {
		observer, err := observability.Resolve(cfg.Observers...)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observers: %w", err)
		}
		k.observer = observer
	}

	if k.tools == nil {
		k.tools = tools.NewRegistry()
	}
	if k.formatter == nil {
		k.formatter = react.NewFormatter(cfg.ExtraContext)
	}
	if k.parser == nil {
		k.parser = react.NewParser()
	}

	sessions, err := session.NewManager(k.store, &cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}
	k.sessions = sessions

	return k, nil
}

// Run starts a turn for input on the session identified by key and returns
// immediately. The turn runs on its own goroutine until it finishes, fails,
// or ctx is cancelled. The caller must drain Handle.Events.
func (k *Kernel) Run(ctx context.Context, key, input string) (*Handle, error) {
	sesh, err := k.sessions.Get(key)
	if err != nil {
		return nil, err
	}

	k.mu.Lock()
	if _, busy := k.active[key]; busy {
		k.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrTurnInProgress, key)
	}
	k.active[key] = sesh
	k.mu.Unlock()

	turnCtx, cancel := context.WithCancel(ctx)
	t := &turn{
		kernel:  k,
		session: sesh,
		input:   input,
		runID:   uuid.Must(uuid.NewV7()).String(),
		events:  stream.New[Event](turnCtx, k.eventBuffer),
	}
	h := &Handle{
		kernel: k,
		key:    key,
		runID:  t.runID,
		events: t.events,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		defer cancel()
		defer k.release(key)
		defer t.events.Close()

		h.result, h.err = t.run(turnCtx)
	}()

	return h, nil
}

// Respond answers the pending confirmation of the session identified by
// key. Any token other than the configured affirmative token declines the
// call. Returns ErrNoPendingConfirmation when nothing is waiting.
func (k *Kernel) Respond(key, token string) error {
	sesh, ok := k.lookup(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPendingConfirmation, key)
	}
	if err := sesh.Confirm(token); err != nil {
		return fmt.Errorf("%w: %s", err, key)
	}
	return nil
}

// PendingConfirmation reports the confirmation the session identified by
// key is waiting on, if any.
func (k *Kernel) PendingConfirmation(key string) (session.Confirmation, bool) {
	sesh, ok := k.lookup(key)
	if !ok {
		return session.Confirmation{}, false
	}
	return sesh.PendingConfirmation()
}

// Session returns the session for key, creating it if needed.
func (k *Kernel) Session(key string) (session.Session, error) {
	if sesh, ok := k.lookup(key); ok {
		return sesh, nil
	}
	return k.sessions.Get(key)
}

// Tools returns the kernel's tool executor.
func (k *Kernel) Tools() ToolExecutor {
	return k.tools
}

// lookup prefers the in-flight turn's session so a pending confirmation
// stays reachable after the manager has evicted it.
func (k *Kernel) lookup(key string) (session.Session, bool) {
	k.mu.Lock()
	sesh, ok := k.active[key]
	k.mu.Unlock()
	if ok {
		return sesh, true
	}
	return k.sessions.Peek(key)
}

func (k *Kernel) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.active, key)
}

func (k *Kernel) requiresConfirmation(name string) bool {
	return k.confirm[name] || k.tools.RequiresConfirmation(name)
}
