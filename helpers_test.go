package graphop_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/syssam/graphop"
)

// testApp is a minimal Application backed by maps.
type testApp struct {
	log      graphop.Logger
	services map[string]any
	conns    map[string]any
}

func (a *testApp) Logger() graphop.Logger { return a.log }

func (a *testApp) Service(name string) (any, error) {
	if v, ok := a.services[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("service %q not found", name)
}

func (a *testApp) Conn(name string) (any, error) {
	if v, ok := a.conns[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("connection %q not found", name)
}

type idKey struct{}

func withID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey{}, id)
}

func idFrom(ctx context.Context) string {
	id, _ := ctx.Value(idKey{}).(string)
	return id
}

// testValid resolves to {"id": <id from context>}.
type testValid struct {
	graphop.Base
	guards []graphop.Guard
	calls  int
}

func (*testValid) Name() string       { return "TestValid" }
func (*testValid) Entrypoint() string { return "Query" }
func (*testValid) TypeDef() string {
	return `type Test { id: ID! }
extend type Query { TestValid: Test }`
}
func (op *testValid) Guards() []graphop.Guard { return op.guards }

func (op *testValid) Resolve(ctx context.Context, _ any, _ map[string]any) (any, error) {
	op.calls++
	return map[string]any{"id": idFrom(ctx)}, nil
}

// testInvalid overrides nothing.
type testInvalid struct {
	graphop.Base
}

// entry is one AddEntrypoint call recorded by fakeBuilder.
type entry struct {
	name       string
	entrypoint string
	typeDef    string
	fn         graphop.PipelineFunc
	guards     []graphop.Guard
}

// fakeBuilder records entrypoints and answers guard validation with a
// fixed decision.
type fakeBuilder struct {
	mu      sync.Mutex
	entries []entry
	allow   bool
	err     error
	addErr  error
}

func newFakeBuilder() *fakeBuilder {
	return &fakeBuilder{allow: true}
}

func (b *fakeBuilder) AddEntrypoint(name, entrypoint, typeDef string, fn graphop.PipelineFunc, guards []graphop.Guard) error {
	if b.addErr != nil {
		return b.addErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry{name, entrypoint, typeDef, fn, guards})
	return nil
}

func (b *fakeBuilder) ValidateGuards(context.Context, []graphop.Guard) (bool, error) {
	return b.allow, b.err
}

func (b *fakeBuilder) pipeline(name string) graphop.PipelineFunc {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.entries {
		if e.name == name {
			return e.fn
		}
	}
	return nil
}
