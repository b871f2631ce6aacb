// Package graph provides the default graphop.SchemaBuilder.
//
// A Builder collects the root fields registered by a graphop.Manager,
// assembles their type definitions into one GraphQL schema and executes
// requests against it.
//
// # Entrypoints
//
// Every operation contributes one root field. The category selects the root
// type the field lives on:
//
//	query        -> Query
//	mutation     -> Mutation
//	subscription -> Subscription
//
// The type definition of an operation must declare its field on that root
// type, usually through an extension:
//
//	type User { id: ID! name: String! }
//	extend type Query { user(id: ID!): User }
//
// AddEntrypoint rejects unknown categories, duplicate names within a
// category and definitions that do not parse or do not declare the field.
// Type conflicts across operations surface when the schema is loaded.
//
// # Execution
//
// Exec parses and validates a request with gqlparser, coerces variables and
// calls the pipeline of each selected root field:
//
//	b := graph.NewBuilder()
//	m := graphop.NewManager(b)
//	m.RegisterOperations(factories, app)
//
//	resp := b.Exec(ctx, graph.Request{
//	    Query:     `query($id: ID!) { user(id: $id) { name } }`,
//	    Variables: map[string]any{"id": "42"},
//	})
//
// Query fields run concurrently; mutation fields run one after the other in
// document order. Results keyed by alias are trimmed to the requested
// selection. A failing field yields a null value and an error carrying the
// field path; other fields are unaffected.
//
// # Guards
//
// ValidateGuards delegates to privacy.Validate unless WithGuardValidator
// installs another evaluator.
package graph
