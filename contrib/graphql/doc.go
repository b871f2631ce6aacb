// Package graphql serves graphop operations over HTTP.
//
// NewHandler wraps an Executor, usually a *graph.Builder, and speaks the
// common GraphQL-over-HTTP conventions:
//
//   - POST with a JSON body {"query", "operationName", "variables"}
//   - POST with the same document encoded as msgpack
//     (Content-Type: application/msgpack)
//   - GET with query, operationName and variables URL parameters,
//     restricted to query operations
//
// Responses are JSON, or msgpack when the Accept header lists
// application/msgpack. Requests that cannot be decoded are answered with
// 400 and a GraphQL error body; executed requests always answer 200 and
// report field failures in the errors list.
//
// # Usage
//
//	b := graph.NewBuilder()
//	m := graphop.NewManager(b)
//	if err := m.RegisterOperations(factories, app); err != nil {
//	    log.Fatal(err)
//	}
//
//	mux := http.NewServeMux()
//	mux.Handle("/query", graphql.NewHandler(b))
//	mux.Handle("/schema", graphql.SchemaHandler(b))
//	mux.Handle("/", graphql.Playground("graphop", "/query"))
//
// WriteSchema prints a schema in SDL form with the gqlparser formatter.
package graphql
