// Package graphop registers declaratively defined API operations with a
// schema builder and runs them through a shared execution pipeline.
//
// # Operations
//
// An operation describes one API action: a name, an entrypoint category
// (query, mutation, ...), a type contract, an ordered list of guards and a
// resolver. Operations embed Base, which provides defaults for every method
// and the Application-backed helpers (logging, service and connection
// lookup):
//
//	type Ping struct {
//	    graphop.Base
//	}
//
//	func (*Ping) Name() string       { return "ping" }
//	func (*Ping) Entrypoint() string { return "Query" }
//	func (*Ping) TypeDef() string    { return "extend type Query { ping: String! }" }
//
//	func (*Ping) Resolve(context.Context, any, map[string]any) (any, error) {
//	    return "pong", nil
//	}
//
// ConfigOf returns the descriptor handed to the schema builder. Its
// entrypoint is always lower case and its resolver is bound to Execute, so
// every call is logged through the attached Application.
//
// # Pipeline
//
// Manager turns every registered operation into a PipelineFunc:
//
//  1. the invocation tuple (context, root, args, operation) is seeded;
//  2. every pre-hook runs in registration order, each receiving the tuple
//     returned by the previous one;
//  3. the schema builder validates the operation guards against the
//     resulting context, and a failed validation returns GuardError
//     (ErrNotAuthorized by default) without calling the resolver;
//  4. the resolver runs with the hook-produced root, args and context.
//
// The hook list is read live by each invocation. A hook registered after an
// operation still applies to that operation's later calls:
//
//	m := graphop.NewManager(builder)
//	if _, err := m.RegisterOperation(func() graphop.Operation { return &Ping{} }, app); err != nil {
//	    return err
//	}
//	m.RegisterPreHook(hook.RequestID()) // applies to ping as well
//
// Errors from hooks, guard validation and resolvers reach the caller
// unchanged. The pipeline imposes no timeout and does not retry.
package graphop
