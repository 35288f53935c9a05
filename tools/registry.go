// Package tools provides the registry of named capabilities the model can
// invoke. A Registry is populated during setup and then shared read-only by
// every session.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tailored-agentic-units/react/core/protocol"
)

// Handler is the function signature for tool implementations.
// Handlers receive the request context and JSON-encoded arguments from the model.
type Handler func(ctx context.Context, args json.RawMessage) (Output, error)

// Output is the tool execution result that feeds back into the next prompt.
// IsError signals that the invocation failed; Content then describes why.
type Output struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

type entry struct {
	tool    protocol.Tool
	handler Handler
	schema  *jsonschema.Schema
}

// Registry holds tool definitions, their handlers, and the set of tools that
// require confirmation before they run. All methods are safe for concurrent
// use.
type Registry struct {
	entries map[string]entry
	confirm map[string]bool
	mu      sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
		confirm: make(map[string]bool),
	}
}

// Register adds a new tool. Returns ErrAlreadyExists if a tool with the same
// name is registered and ErrInvalidSchema if Parameters does not compile.
// Use Replace to update an existing tool's handler.
func (r *Registry) Register(tool protocol.Tool, handler Handler) error {
	e, err := newEntry(tool, handler)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, tool.Name)
	}

	r.entries[tool.Name] = e
	return nil
}

// Replace updates an existing tool's definition and handler.
// Returns ErrNotFound if no tool with the given name is registered.
func (r *Registry) Replace(tool protocol.Tool, handler Handler) error {
	e, err := newEntry(tool, handler)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tool.Name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, tool.Name)
	}

	r.entries[tool.Name] = e
	return nil
}

func newEntry(tool protocol.Tool, handler Handler) (entry, error) {
	if tool.Name == "" {
		return entry{}, ErrEmptyName
	}
	if handler == nil {
		return entry{}, fmt.Errorf("%w: %s", ErrNilHandler, tool.Name)
	}

	e := entry{tool: tool, handler: handler}
	if len(tool.Parameters) > 0 {
		schema, err := jsonschema.CompileString(tool.Name+".schema.json", tool.Schema())
		if err != nil {
			return entry{}, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, tool.Name, err)
		}
		e.schema = schema
	}
	return e, nil
}

// Get retrieves a handler by tool name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	if !exists {
		return nil, false
	}
	return e.handler, true
}

// Lookup retrieves a tool definition by exact name.
func (r *Registry) Lookup(name string) (protocol.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	return e.tool, exists
}

// List returns the definitions of all registered tools sorted by name.
func (r *Registry) List() []protocol.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]protocol.Tool, 0, len(r.entries))
	for _, e := range r.entries {
		tools = append(tools, e.tool)
	}
	slices.SortFunc(tools, func(a, b protocol.Tool) int {
		return strings.Compare(a.Name, b.Name)
	})
	return tools
}

// RequireConfirmation flags tools that must be approved before each call.
// Names may be flagged before the tool itself is registered.
func (r *Registry) RequireConfirmation(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			r.confirm[name] = true
		}
	}
}

// RequiresConfirmation reports whether name is flagged confirm-required.
func (r *Registry) RequiresConfirmation(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.confirm[name]
}

// Execute dispatches a tool call to the registered handler by name.
// Returns ErrNotFound if the tool is not registered. Every other failure,
// including argument validation, handler errors and handler panics, is
// reported as an Output with IsError set.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (Output, error) {
	r.mu.RLock()
	e, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		return Output{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	if e.schema != nil {
		if err := validate(e.schema, args); err != nil {
			return Output{Content: fmt.Sprintf("invalid arguments for %s: %v", name, err), IsError: true}, nil
		}
	}

	return invoke(ctx, e.handler, name, args), nil
}

func validate(schema *jsonschema.Schema, args json.RawMessage) error {
	var decoded any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return err
	}
	return schema.Validate(decoded)
}

func invoke(ctx context.Context, handler Handler, name string, args json.RawMessage) (out Output) {
	defer func() {
		if p := recover(); p != nil {
			out = Output{Content: fmt.Sprintf("tool %s panicked: %v", name, p), IsError: true}
		}
	}()

	result, err := handler(ctx, args)
	if err != nil {
		return Output{Content: err.Error(), IsError: true}
	}
	return result
}
