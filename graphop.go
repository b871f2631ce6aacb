package graphop

import "context"

type (
	// Logger is the logging capability exposed by an Application.
	// *slog.Logger implements it.
	Logger interface {
		Debug(msg string, args ...any)
		Info(msg string, args ...any)
		Error(msg string, args ...any)
	}

	// Application is the host an operation is attached to at registration
	// time. It provides logging plus service and connection lookup.
	// Operations never own their Application.
	Application interface {
		Logger() Logger
		Service(name string) (any, error)
		Conn(name string) (any, error)
	}

	// Guard is an authorization check attached to an operation. Guards are
	// opaque to the pipeline and evaluated as a group by the SchemaBuilder.
	Guard interface {
		EvalGuard(context.Context) error
	}

	// SchemaBuilder registers entrypoints and validates guards. It owns
	// request dispatch and name uniqueness.
	SchemaBuilder interface {
		AddEntrypoint(name, entrypoint, typeDef string, fn PipelineFunc, guards []Guard) error
		ValidateGuards(ctx context.Context, guards []Guard) (bool, error)
	}

	// PipelineFunc is the callable registered for every operation. It runs
	// the hook chain, the guard check and the resolver.
	PipelineFunc func(ctx context.Context, root any, args map[string]any) (any, error)

	// ResolverFunc is the signature of a bound resolver.
	ResolverFunc func(ctx context.Context, root any, args map[string]any) (any, error)
)

// GuardFunc type is an adapter which allows the use of
// ordinary functions as guards.
type GuardFunc func(context.Context) error

// EvalGuard returns f(ctx).
func (f GuardFunc) EvalGuard(ctx context.Context) error {
	return f(ctx)
}
