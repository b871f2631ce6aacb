package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/syssam/graphop"
	"github.com/syssam/graphop/privacy"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Entrypoint categories accepted by the Builder.
const (
	Query        = "query"
	Mutation     = "mutation"
	Subscription = "subscription"
)

// rootTypes maps a category to its GraphQL root type name.
var rootTypes = map[string]string{
	Query:        "Query",
	Mutation:     "Mutation",
	Subscription: "Subscription",
}

// Builder errors.
var (
	// ErrDuplicateEntrypoint is returned when a name is registered twice
	// under the same category.
	ErrDuplicateEntrypoint = errors.New("graph: duplicate entrypoint")

	// ErrUnknownCategory is returned for categories other than query,
	// mutation and subscription.
	ErrUnknownCategory = errors.New("graph: unknown entrypoint category")

	// ErrInvalidTypeDef is returned for empty or malformed type definitions.
	ErrInvalidTypeDef = errors.New("graph: invalid type definition")
)

// Entrypoint is a root field registered with the Builder.
type Entrypoint struct {
	Name     string
	Category string
	TypeDef  string
	Guards   []graphop.Guard
	Pipeline graphop.PipelineFunc
}

// GuardValidator evaluates the guards of an operation.
type GuardValidator func(context.Context, []graphop.Guard) (bool, error)

// Option configures a Builder.
type Option func(*Builder)

// WithGuardValidator replaces privacy.Validate as the guard evaluator.
func WithGuardValidator(v GuardValidator) Option {
	return func(b *Builder) {
		b.validate = v
	}
}

// WithRoot sets the root value passed to every pipeline.
func WithRoot(root any) Option {
	return func(b *Builder) {
		b.root = root
	}
}

// Builder is the default graphop.SchemaBuilder. It assembles the type
// definitions of all registered operations into one GraphQL schema and
// dispatches requests to their pipelines.
type Builder struct {
	validate    GuardValidator
	root        any
	parallelism int

	mu      sync.RWMutex
	entries []*Entrypoint
	index   map[string]*Entrypoint
	schema  *ast.Schema
}

var _ graphop.SchemaBuilder = (*Builder)(nil)

// NewBuilder returns an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		validate: privacy.Validate,
		index:    make(map[string]*Entrypoint),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddEntrypoint implements graphop.SchemaBuilder.
func (b *Builder) AddEntrypoint(name, category, typeDef string, fn graphop.PipelineFunc, guards []graphop.Guard) error {
	if name == "" {
		return errors.New("graph: entrypoint name is empty")
	}
	if fn == nil {
		return fmt.Errorf("graph: entrypoint %q: nil pipeline", name)
	}
	root, ok := rootTypes[category]
	if !ok {
		return fmt.Errorf("%w %q for %q", ErrUnknownCategory, category, name)
	}
	if strings.TrimSpace(typeDef) == "" {
		return fmt.Errorf("%w: %q has no type definition", ErrInvalidTypeDef, name)
	}
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: typeDef})
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidTypeDef, name, err)
	}
	if !declaresField(doc, root, name) {
		return fmt.Errorf("%w: %q does not declare %s.%s", ErrInvalidTypeDef, name, root, name)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := category + "." + name
	if _, ok := b.index[key]; ok {
		return fmt.Errorf("%w: %s %q", ErrDuplicateEntrypoint, category, name)
	}
	e := &Entrypoint{
		Name:     name,
		Category: category,
		TypeDef:  typeDef,
		Guards:   guards,
		Pipeline: fn,
	}
	b.entries = append(b.entries, e)
	b.index[key] = e
	b.schema = nil
	return nil
}

// ValidateGuards implements graphop.SchemaBuilder.
func (b *Builder) ValidateGuards(ctx context.Context, guards []graphop.Guard) (bool, error) {
	return b.validate(ctx, guards)
}

// Entrypoints returns the registered entrypoints in registration order.
func (b *Builder) Entrypoints() []Entrypoint {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Entrypoint, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, *e)
	}
	return out
}

// Schema loads the type definitions of all entrypoints into a schema.
// The result is cached until the next AddEntrypoint.
func (b *Builder) Schema() (*ast.Schema, error) {
	b.mu.RLock()
	s := b.schema
	b.mu.RUnlock()
	if s != nil {
		return s, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.schema != nil {
		return b.schema, nil
	}
	if len(b.entries) == 0 {
		return nil, errors.New("graph: no entrypoints registered")
	}
	sources := make([]*ast.Source, 0, len(b.entries))
	for _, e := range b.entries {
		sources = append(sources, &ast.Source{Name: e.Category + "/" + e.Name, Input: e.TypeDef})
	}
	s, err := gqlparser.LoadSchema(sources...)
	if err != nil {
		return nil, fmt.Errorf("graph: load schema: %w", err)
	}
	b.schema = s
	return s, nil
}

func (b *Builder) lookup(category, name string) (*Entrypoint, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.index[category+"."+name]
	return e, ok
}

// declaresField reports if doc declares field on the root type, either in a
// definition or in an extension.
func declaresField(doc *ast.SchemaDocument, root, field string) bool {
	for _, list := range []ast.DefinitionList{doc.Definitions, doc.Extensions} {
		for _, def := range list {
			if def.Name == root && def.Fields.ForName(field) != nil {
				return true
			}
		}
	}
	return false
}
