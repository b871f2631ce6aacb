package privacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/graphop"
)

// Policy decision sentinel errors.
//
// These errors are used as return values from rules to indicate
// how the evaluation should proceed. Use errors.Is() to check
// for these values:
//
//	if errors.Is(err, privacy.Allow) { ... }
//	if errors.Is(err, privacy.Deny) { ... }
//	if errors.Is(err, privacy.Skip) { ... }
var (
	// Allow may be returned by rules to indicate that the evaluation
	// should terminate with an allow decision.
	Allow = errors.New("graphop/privacy: allow rule")

	// Deny may be returned by rules to indicate that the evaluation
	// should terminate with a deny decision.
	Deny = errors.New("graphop/privacy: deny rule")

	// Skip may be returned by rules to indicate that the evaluation
	// should continue to the next rule in the chain.
	Skip = errors.New("graphop/privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// Rule is a guard returning one of the Allow, Deny or Skip decisions.
// A nil decision is equivalent to Skip.
type Rule = graphop.Guard

// RuleFunc type is an adapter which allows the use of
// ordinary functions as rules.
type RuleFunc func(context.Context) error

// EvalGuard returns f(ctx).
func (f RuleFunc) EvalGuard(ctx context.Context) error {
	return f(ctx)
}

// AlwaysAllowRule returns a rule that always returns an Allow decision.
func AlwaysAllowRule() Rule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule that always returns a Deny decision.
func AlwaysDenyRule() Rule {
	return fixedDecision{Deny}
}

// ContextRule creates a rule from a context evaluation function.
// The provided function should return Allow, Deny, Skip, or nil.
func ContextRule(eval func(context.Context) error) Rule {
	return RuleFunc(eval)
}

// Policy combines multiple rules into a single rule.
type Policy []Rule

// EvalGuard evaluates the policy. Nested policies are flattened: an Allow
// from an inner rule terminates the outer evaluation as well.
func (p Policy) EvalGuard(ctx context.Context) error {
	for _, rule := range p {
		switch decision := rule.EvalGuard(ctx); {
		case decision == nil || errors.Is(decision, Skip):
		default:
			return decision
		}
	}
	return Skip
}

// Eval evaluates the guards in order. A nil or Skip decision moves on to the
// next guard, an Allow decision stops the evaluation with a nil error, and
// any other error stops it with that error. A decision attached to ctx with
// DecisionContext takes precedence over the guards.
func Eval(ctx context.Context, guards []graphop.Guard) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, guard := range guards {
		switch decision := guard.EvalGuard(ctx); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

// Validate maps Eval onto the boolean contract of graphop.SchemaBuilder.
// A Deny decision reports false with a nil error; any other failure reports
// false together with the error.
func Validate(ctx context.Context, guards []graphop.Guard) (bool, error) {
	switch err := Eval(ctx, guards); {
	case err == nil:
		return true, nil
	case errors.Is(err, Deny):
		return false, nil
	default:
		return false, err
	}
}

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context with
// a policy decision attach to it.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the policy decision from the context.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) EvalGuard(context.Context) error {
	return f.decision
}
