package graphop

import (
	"context"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Operation is the interface implemented by every API operation.
//
// Concrete operations embed Base and override the methods they need:
//
//	type CreateUser struct {
//	    graphop.Base
//	}
//
//	func (*CreateUser) Name() string       { return "createUser" }
//	func (*CreateUser) Entrypoint() string { return "Mutation" }
//	func (*CreateUser) TypeDef() string    { return createUserSDL }
//
//	func (op *CreateUser) Resolve(ctx context.Context, _ any, args map[string]any) (any, error) {
//	    db, err := graphop.ConnAs[*sql.Driver](op, "main")
//	    ...
//	}
type Operation interface {
	// Name returns the unique identifier of the operation.
	Name() string
	// Entrypoint returns the dispatch category (query, mutation...).
	// It is compared case-insensitively.
	Entrypoint() string
	// TypeDef returns the type contract of the operation.
	TypeDef() string
	// Guards returns the ordered list of authorization checks.
	Guards() []Guard
	// Resolve performs the operation.
	Resolve(ctx context.Context, root any, args map[string]any) (any, error)
	// GuardError returns the rejection used when guard validation fails.
	GuardError(ctx context.Context) error

	SetApplication(Application)
	Application() (Application, error)
	Logger() (Logger, error)
	Service(name string) (any, error)
	Conn(name string) (any, error)
}

// Factory creates a fresh Operation instance.
type Factory func() Operation

// Base is the default Operation implementation that is embedded
// by concrete operations. Every descriptor method returns its zero
// value and Resolve fails with a NotImplementedError.
type Base struct {
	app Application
}

// Name of the operation.
func (Base) Name() string { return "" }

// Entrypoint of the operation.
func (Base) Entrypoint() string { return "" }

// TypeDef of the operation.
func (Base) TypeDef() string { return "" }

// Guards of the operation.
func (Base) Guards() []Guard { return nil }

// Resolve fails with a NotImplementedError.
func (Base) Resolve(context.Context, any, map[string]any) (any, error) {
	return nil, NewNotImplementedError("")
}

// GuardError returns ErrNotAuthorized. Operations may override it to return
// an AuthorizationError with a custom code.
func (Base) GuardError(context.Context) error {
	return ErrNotAuthorized
}

// SetApplication attaches the application. Calling it again replaces the
// previous reference.
func (b *Base) SetApplication(app Application) {
	b.app = app
}

// Application returns the attached application.
func (b *Base) Application() (Application, error) {
	if b.app == nil {
		return nil, NewAttachmentError("", "application")
	}
	return b.app, nil
}

// Logger returns the logger of the attached application.
func (b *Base) Logger() (Logger, error) {
	if b.app == nil {
		return nil, NewAttachmentError("", "logger")
	}
	return b.app.Logger(), nil
}

// Debug logs at debug level through the attached application.
func (b *Base) Debug(msg string, args ...any) error {
	l, err := b.Logger()
	if err != nil {
		return err
	}
	l.Debug(msg, args...)
	return nil
}

// Info logs at info level through the attached application.
func (b *Base) Info(msg string, args ...any) error {
	l, err := b.Logger()
	if err != nil {
		return err
	}
	l.Info(msg, args...)
	return nil
}

// Error logs at error level through the attached application.
func (b *Base) Error(msg string, args ...any) error {
	l, err := b.Logger()
	if err != nil {
		return err
	}
	l.Error(msg, args...)
	return nil
}

// Service looks up a service in the attached application.
func (b *Base) Service(name string) (any, error) {
	if b.app == nil {
		return nil, NewAttachmentError("", "service")
	}
	return b.app.Service(name)
}

// Conn looks up a connection in the attached application.
func (b *Base) Conn(name string) (any, error) {
	if b.app == nil {
		return nil, NewAttachmentError("", "conn")
	}
	return b.app.Conn(name)
}

// ServiceAs looks up a service and asserts its type.
func ServiceAs[T any](op Operation, name string) (T, error) {
	var zero T
	v, err := op.Service(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("graphop: service %q is %T, not %T", name, v, zero)
	}
	return t, nil
}

// ConnAs looks up a connection and asserts its type.
func ConnAs[T any](op Operation, name string) (T, error) {
	var zero T
	v, err := op.Conn(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("graphop: connection %q is %T, not %T", name, v, zero)
	}
	return t, nil
}

// Descriptor is the registration-time configuration of an operation.
type Descriptor struct {
	Name       string
	Entrypoint string // always lower case
	TypeDef    string
	Guards     []Guard
	// Resolver is bound to Execute, not to the raw Resolve method.
	Resolver ResolverFunc
}

// ConfigOf builds the descriptor of op.
func ConfigOf(op Operation) Descriptor {
	guards := append([]Guard{}, op.Guards()...)
	return Descriptor{
		Name:       op.Name(),
		Entrypoint: cases.Lower(language.Und).String(op.Entrypoint()),
		TypeDef:    op.TypeDef(),
		Guards:     guards,
		Resolver: func(ctx context.Context, root any, args map[string]any) (any, error) {
			return Execute(ctx, op, root, args)
		},
	}
}

// Execute runs the resolver of op, logging the call and any failure through
// the attached application. Resolver errors are returned unchanged.
func Execute(ctx context.Context, op Operation, root any, args map[string]any) (any, error) {
	name := op.Name()
	l, err := op.Logger()
	if err != nil {
		return nil, NewAttachmentError(name, "execute")
	}
	l.Debug("executing operation", "operation", name)
	v, err := op.Resolve(ctx, root, args)
	if err != nil {
		l.Debug("operation failed", "operation", name, "error", err.Error())
		return nil, err
	}
	return v, nil
}
