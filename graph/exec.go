package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/syssam/graphop"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"
	"golang.org/x/sync/errgroup"
)

// Request is a GraphQL request.
type Request struct {
	Query         string         `json:"query" msgpack:"query"`
	OperationName string         `json:"operationName,omitempty" msgpack:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty" msgpack:"variables,omitempty"`
}

// WithParallelism limits the number of query fields resolved concurrently.
// Zero or a negative value means no limit.
func WithParallelism(n int) Option {
	return func(b *Builder) {
		b.parallelism = n
	}
}

// Exec parses and validates req against the schema and resolves every
// top-level field through its pipeline. Query fields are resolved
// concurrently and mutation fields serially in document order.
func (b *Builder) Exec(ctx context.Context, req Request) *Response {
	schema, err := b.Schema()
	if err != nil {
		return &Response{Errors: gqlerror.List{gqlerror.Errorf("%s", err)}}
	}
	doc, errs := gqlparser.LoadQuery(schema, req.Query)
	if len(errs) > 0 {
		return &Response{Errors: errs}
	}
	op, err := selectOperation(doc, req.OperationName)
	if err != nil {
		return &Response{Errors: gqlerror.List{gqlerror.Errorf("%s", err)}}
	}
	vars, verr := validator.VariableValues(schema, op, req.Variables)
	if verr != nil {
		return &Response{Errors: gqlerror.List{asGQLError(nil, verr)}}
	}
	category := string(op.Operation)
	if category == Subscription {
		return &Response{Errors: gqlerror.List{gqlerror.Errorf("graph: subscriptions are not supported")}}
	}
	fields := collectFields(op.SelectionSet, vars)
	results := make([]fieldResult, len(fields))
	if category == Mutation {
		for i, f := range fields {
			results[i] = b.resolveField(ctx, category, f, vars)
		}
	} else {
		var g errgroup.Group
		if b.parallelism > 0 {
			g.SetLimit(b.parallelism)
		}
		for i, f := range fields {
			g.Go(func() error {
				results[i] = b.resolveField(ctx, category, f, vars)
				return nil
			})
		}
		_ = g.Wait()
	}
	resp := &Response{Data: make(map[string]any, len(fields)), selection: op.SelectionSet, vars: vars}
	for i, f := range fields {
		resp.Data[f.alias] = results[i].value
		if results[i].err != nil {
			resp.Errors = append(resp.Errors, results[i].err)
		}
	}
	return resp
}

type fieldResult struct {
	value any
	err   *gqlerror.Error
}

func (b *Builder) resolveField(ctx context.Context, category string, f collectedField, vars map[string]any) (res fieldResult) {
	path := ast.Path{ast.PathName(f.alias)}
	defer func() {
		if r := recover(); r != nil {
			res = fieldResult{err: gqlerror.ErrorPathf(path, "graph: panic resolving %s: %v", f.field.Name, r)}
		}
	}()
	if f.field.Name == "__typename" {
		return fieldResult{value: rootTypes[category]}
	}
	if category == Query && isMeta(f.field.Name) {
		schema, err := b.Schema()
		if err != nil {
			return fieldResult{err: asGQLError(path, err)}
		}
		return fieldResult{value: introspect(schema, f, vars)}
	}
	e, ok := b.lookup(category, f.field.Name)
	if !ok {
		return fieldResult{err: gqlerror.ErrorPathf(path, "graph: no %s entrypoint named %q", category, f.field.Name)}
	}
	v, err := e.Pipeline(ctx, b.root, f.field.ArgumentMap(vars))
	if err != nil {
		return fieldResult{err: asGQLError(path, err)}
	}
	if len(f.selection) == 0 || v == nil {
		return fieldResult{value: v}
	}
	shaped, err := project(v, f.selection, vars)
	if err != nil {
		return fieldResult{err: asGQLError(path, err)}
	}
	return fieldResult{value: shaped}
}

// asGQLError converts err into a GraphQL error located at path.
// Authorization codes are exposed as the "code" extension.
func asGQLError(path ast.Path, err error) *gqlerror.Error {
	var gerr *gqlerror.Error
	if errors.As(err, &gerr) && path == nil {
		return gerr
	}
	gerr = gqlerror.WrapPath(path, err)
	var aerr *graphop.AuthorizationError
	if errors.As(err, &aerr) && aerr.Code != "" {
		gerr.Extensions = map[string]any{"code": aerr.Code}
	}
	return gerr
}

func selectOperation(doc *ast.QueryDocument, name string) (*ast.OperationDefinition, error) {
	switch {
	case name == "" && len(doc.Operations) == 1:
		return doc.Operations[0], nil
	case name == "":
		return nil, errors.New("graph: operation name is required when the document has several operations")
	}
	for _, op := range doc.Operations {
		if op.Name == name {
			return op, nil
		}
	}
	return nil, fmt.Errorf("graph: unknown operation %q", name)
}

// collectedField is a response key with the fields merged under it.
type collectedField struct {
	alias     string
	field     *ast.Field
	selection ast.SelectionSet
}

// collectFields flattens fragments and applies @skip and @include. Fields
// sharing a response key are merged, keeping the first position.
func collectFields(set ast.SelectionSet, vars map[string]any) []collectedField {
	var (
		out   []collectedField
		index = make(map[string]int)
	)
	var walk func(ast.SelectionSet)
	walk = func(set ast.SelectionSet) {
		for _, sel := range set {
			switch sel := sel.(type) {
			case *ast.Field:
				if !included(sel.Directives, vars) {
					continue
				}
				alias := sel.Alias
				if alias == "" {
					alias = sel.Name
				}
				if i, ok := index[alias]; ok {
					out[i].selection = append(out[i].selection, sel.SelectionSet...)
					continue
				}
				index[alias] = len(out)
				out = append(out, collectedField{
					alias:     alias,
					field:     sel,
					selection: append(ast.SelectionSet(nil), sel.SelectionSet...),
				})
			case *ast.InlineFragment:
				if included(sel.Directives, vars) {
					walk(sel.SelectionSet)
				}
			case *ast.FragmentSpread:
				if included(sel.Directives, vars) && sel.Definition != nil {
					walk(sel.Definition.SelectionSet)
				}
			}
		}
	}
	walk(set)
	return out
}

func included(dirs ast.DirectiveList, vars map[string]any) bool {
	if d := dirs.ForName("skip"); d != nil {
		if skip, _ := d.ArgumentMap(vars)["if"].(bool); skip {
			return false
		}
	}
	if d := dirs.ForName("include"); d != nil {
		if include, _ := d.ArgumentMap(vars)["if"].(bool); !include {
			return false
		}
	}
	return true
}

// project converts v to its JSON form and keeps only the selected fields.
func project(v any, set ast.SelectionSet, vars map[string]any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("graph: encode result: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("graph: decode result: %w", err)
	}
	return shape(generic, set, vars), nil
}

func shape(v any, set ast.SelectionSet, vars map[string]any) any {
	switch v := v.(type) {
	case map[string]any:
		fields := collectFields(set, vars)
		out := make(map[string]any, len(fields))
		for _, f := range fields {
			if f.field.Name == "__typename" {
				if f.field.ObjectDefinition != nil {
					out[f.alias] = f.field.ObjectDefinition.Name
				}
				continue
			}
			child := v[f.field.Name]
			if len(f.selection) > 0 {
				child = shape(child, f.selection, vars)
			}
			out[f.alias] = child
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = shape(v[i], set, vars)
		}
		return out
	default:
		return v
	}
}
