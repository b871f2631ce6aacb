package graphop

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Invocation is the working tuple of a single pipeline call.
// Pre-hooks receive it and return its replacement.
type Invocation struct {
	Context   context.Context
	Root      any
	Args      map[string]any
	Operation Operation
}

// PreHook transforms an invocation before guards and the resolver run.
// Returning an error aborts the invocation with that error.
type PreHook func(Invocation) (Invocation, error)

// Manager registers operations with a SchemaBuilder and owns the hook chain
// shared by all of them.
//
// The pipeline of a registered operation reads the hook list when it runs,
// not when the operation is registered. Hooks added after RegisterOperation
// therefore apply to every later invocation of that operation, and a hook
// appended while an invocation is walking the chain is run by that
// invocation if it lands past the current position.
type Manager struct {
	sb SchemaBuilder

	mu    sync.RWMutex
	hooks []PreHook
}

// NewManager returns a Manager registering into sb.
func NewManager(sb SchemaBuilder) *Manager {
	return &Manager{sb: sb}
}

// RegisterPreHook appends h to the hook chain.
func (m *Manager) RegisterPreHook(h PreHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, h)
}

// Hooks returns a snapshot of the hook chain.
func (m *Manager) Hooks() []PreHook {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]PreHook(nil), m.hooks...)
}

// hook returns the hook at position i of the live chain.
func (m *Manager) hook(i int) (PreHook, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i >= len(m.hooks) {
		return nil, false
	}
	return m.hooks[i], true
}

// RegisterOperation instantiates an operation, attaches app to it and adds
// its pipeline to the SchemaBuilder.
func (m *Manager) RegisterOperation(f Factory, app Application) (Operation, error) {
	if f == nil {
		return nil, errors.New("graphop: nil operation factory")
	}
	op := f()
	if op == nil {
		return nil, errors.New("graphop: operation factory returned nil")
	}
	op.SetApplication(app)
	cfg := ConfigOf(op)
	if err := m.sb.AddEntrypoint(cfg.Name, cfg.Entrypoint, cfg.TypeDef, m.pipeline(op, cfg), cfg.Guards); err != nil {
		return nil, fmt.Errorf("graphop: register operation %q: %w", cfg.Name, err)
	}
	return op, nil
}

// RegisterOperations registers every factory in order and stops at the
// first failure.
func (m *Manager) RegisterOperations(fs []Factory, app Application) error {
	for _, f := range fs {
		if _, err := m.RegisterOperation(f, app); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) pipeline(op Operation, cfg Descriptor) PipelineFunc {
	return func(ctx context.Context, root any, args map[string]any) (any, error) {
		inv := Invocation{Context: ctx, Root: root, Args: args, Operation: op}
		for i := 0; ; i++ {
			h, ok := m.hook(i)
			if !ok {
				break
			}
			next, err := h(inv)
			if err != nil {
				return nil, err
			}
			if next.Context == nil || next.Operation == nil {
				return nil, fmt.Errorf("%w (hook %d)", ErrInvalidInvocation, i)
			}
			inv = next
		}
		ok, err := m.sb.ValidateGuards(inv.Context, op.Guards())
		if err != nil {
			return nil, err
		}
		if !ok {
			if err := op.GuardError(inv.Context); err != nil {
				return nil, err
			}
			return nil, ErrNotAuthorized
		}
		return cfg.Resolver(inv.Context, inv.Root, inv.Args)
	}
}
