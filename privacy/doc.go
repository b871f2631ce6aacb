// Package privacy provides guard rules for graphop operations.
//
// Guards are attached to operations and evaluated by the schema builder
// before the resolver runs. This package gives them a decision protocol and
// a set of common rules.
//
// # Core Concepts
//
//   - Rule: a graphop.Guard returning Allow, Deny or Skip
//   - Policy: an ordered list of rules evaluated as one rule
//   - Viewer: an interface representing the current user
//
// # Defining Guards
//
// Operations return their guards from the Guards method:
//
//	func (*DeleteUser) Guards() []graphop.Guard {
//	    return []graphop.Guard{
//	        privacy.DenyIfNoViewer(),   // Require authentication
//	        privacy.HasRole("admin"),   // Allow admins
//	        privacy.AlwaysDenyRule(),   // Deny by default
//	    }
//	}
//
// # Rule Evaluation
//
// Eval walks the guards in order until one returns a final decision:
//
//   - Allow: grants access and stops evaluation
//   - Deny (or any other error): denies access and stops evaluation
//   - Skip or nil: continues to the next rule
//
// If every rule skips, access is granted. Operations that must fail closed
// end their list with AlwaysDenyRule.
//
// Validate adapts Eval to the boolean contract expected by
// graphop.SchemaBuilder.ValidateGuards; the default graph.Builder uses it.
//
// # Viewer Interface
//
// The viewer is stored in the context, usually by a pre-hook:
//
//	m.RegisterPreHook(hook.Viewer(func(ctx context.Context) privacy.Viewer {
//	    return viewerFromToken(ctx)
//	}))
//
// A SimpleViewer implementation is provided for basic use cases:
//
//	viewer := &privacy.SimpleViewer{
//	    UserID:   "user-123",
//	    Roles:    []string{"admin", "user"},
//	    TenantID: "tenant-abc",
//	}
//
// # Decision Context
//
// DecisionContext pins a decision for every evaluation under a context,
// which is useful for internal callers and tests:
//
//	ctx = privacy.DecisionContext(ctx, privacy.Allow)
package privacy
