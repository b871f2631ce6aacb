// Package hook provides stock pre-hooks for graphop.Manager.
//
// Hooks run in registration order before guards are evaluated, so a hook
// that attaches the viewer must be registered before any hook or guard
// that reads it:
//
//	m.RegisterPreHook(hook.RequestID())
//	m.RegisterPreHook(hook.Viewer(viewerFromRequest))
//	m.RegisterPreHook(hook.Logging())
package hook

import (
	"context"
	"fmt"
	"time"

	"github.com/syssam/graphop"
	"github.com/syssam/graphop/privacy"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// WithRequestID returns a context carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id attached to ctx, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// RequestID attaches a random UUID to the invocation context unless one is
// already present.
func RequestID() graphop.PreHook {
	return func(inv graphop.Invocation) (graphop.Invocation, error) {
		if _, ok := RequestIDFromContext(inv.Context); !ok {
			inv.Context = WithRequestID(inv.Context, uuid.NewString())
		}
		return inv, nil
	}
}

// Viewer attaches the viewer returned by fn for guard evaluation. A nil
// viewer leaves the context unchanged.
func Viewer(fn func(context.Context) privacy.Viewer) graphop.PreHook {
	return func(inv graphop.Invocation) (graphop.Invocation, error) {
		if v := fn(inv.Context); v != nil {
			inv.Context = privacy.WithViewer(inv.Context, v)
		}
		return inv, nil
	}
}

// Timeout bounds the rest of the invocation by d.
//
// A pre-hook does not see the invocation complete, so the timer is not
// stopped when the resolver returns. It is released when the deadline passes
// or when the parent context is done, whichever comes first. net/http
// cancels the request context once the handler returns, so over HTTP the
// timer lives no longer than the request.
func Timeout(d time.Duration) graphop.PreHook {
	return func(inv graphop.Invocation) (graphop.Invocation, error) {
		ctx, cancel := context.WithTimeout(inv.Context, d)
		context.AfterFunc(ctx, cancel)
		inv.Context = ctx
		return inv, nil
	}
}

// Logging emits one info line per invocation through the logger of the
// operation. Operations without an application are not logged.
func Logging() graphop.PreHook {
	return func(inv graphop.Invocation) (graphop.Invocation, error) {
		l, err := inv.Operation.Logger()
		if err != nil {
			return inv, nil
		}
		args := []any{"operation", inv.Operation.Name(), "args", len(inv.Args)}
		if id, ok := RequestIDFromContext(inv.Context); ok {
			args = append(args, "request_id", id)
		}
		l.Info("invoking operation", args...)
		return inv, nil
	}
}

// Args rewrites or validates the invocation arguments. An error from fn
// aborts the invocation.
func Args(fn func(map[string]any) (map[string]any, error)) graphop.PreHook {
	return func(inv graphop.Invocation) (graphop.Invocation, error) {
		args, err := fn(inv.Args)
		if err != nil {
			return inv, fmt.Errorf("hook: %s arguments: %w", inv.Operation.Name(), err)
		}
		inv.Args = args
		return inv, nil
	}
}
