package graphop

import (
	"errors"
	"fmt"
)

// NotAuthorizedMessage is the message carried by the default guard rejection.
const NotAuthorizedMessage = "Request not authorized, one or more guard validations failed"

// Standard sentinel errors for the operation pipeline.
var (
	// ErrNotAttached is returned when a capability that needs an Application
	// is used before one was attached to the operation.
	ErrNotAttached = errors.New("graphop: application not attached")

	// ErrNotImplemented is returned by the default Resolve of Base.
	ErrNotImplemented = errors.New("graphop: resolver not implemented")

	// ErrNotAuthorized is the default rejection of a pipeline whose guards
	// did not validate. Its message is NotAuthorizedMessage.
	ErrNotAuthorized error = &AuthorizationError{}

	// ErrInvalidInvocation is returned when a pre-hook drops the context or
	// the operation of the invocation it was given.
	ErrInvalidInvocation = errors.New("graphop: pre-hook returned an invocation without context or operation")
)

// AttachmentError represents a call to an Application-backed capability on an
// operation that has no Application attached.
type AttachmentError struct {
	Op         string // Operation name, may be empty.
	Capability string // The capability that was requested (logger, service, conn...).
}

// Error returns the error string.
func (e *AttachmentError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("graphop: application must be attached to operation (%s)", e.Capability)
	}
	return fmt.Sprintf("graphop: application must be attached to operation %q (%s)", e.Op, e.Capability)
}

// Is reports whether the target error matches AttachmentError.
// This allows errors.Is(err, ErrNotAttached) to return true.
func (e *AttachmentError) Is(err error) bool {
	return err == ErrNotAttached
}

// NewAttachmentError returns a new AttachmentError.
func NewAttachmentError(op, capability string) *AttachmentError {
	return &AttachmentError{Op: op, Capability: capability}
}

// IsNotAttached returns true if the error is an AttachmentError.
func IsNotAttached(err error) bool {
	if err == nil {
		return false
	}
	var e *AttachmentError
	return errors.As(err, &e) || errors.Is(err, ErrNotAttached)
}

// NotImplementedError is returned when an operation without a Resolve
// override is executed.
type NotImplementedError struct {
	Op string
}

// Error returns the error string.
func (e *NotImplementedError) Error() string {
	if e.Op == "" {
		return "graphop: resolver not implemented"
	}
	return fmt.Sprintf("graphop: resolver not implemented for operation %q", e.Op)
}

// Is reports whether the target error matches NotImplementedError.
func (e *NotImplementedError) Is(err error) bool {
	return err == ErrNotImplemented
}

// NewNotImplementedError returns a new NotImplementedError.
func NewNotImplementedError(op string) *NotImplementedError {
	return &NotImplementedError{Op: op}
}

// IsNotImplemented returns true if the error is a NotImplementedError.
func IsNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var e *NotImplementedError
	return errors.As(err, &e) || errors.Is(err, ErrNotImplemented)
}

// AuthorizationError is the rejection produced by the pipeline when the
// guards of an operation do not validate. Code is an optional
// machine-readable code set by custom GuardError implementations.
type AuthorizationError struct {
	Op   string
	Code string
	Msg  string
}

// Error returns the error string. It defaults to NotAuthorizedMessage.
func (e *AuthorizationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return NotAuthorizedMessage
}

// Is reports whether the target is an AuthorizationError.
// This allows errors.Is(err, ErrNotAuthorized) to return true for every
// authorization rejection, including customized ones.
func (e *AuthorizationError) Is(err error) bool {
	_, ok := err.(*AuthorizationError)
	return ok
}

// NewAuthorizationError returns an AuthorizationError for the given operation
// with an optional code and message.
func NewAuthorizationError(op, code, msg string) *AuthorizationError {
	return &AuthorizationError{Op: op, Code: code, Msg: msg}
}

// IsNotAuthorized returns true if the error is an AuthorizationError.
func IsNotAuthorized(err error) bool {
	if err == nil {
		return false
	}
	var e *AuthorizationError
	return errors.As(err, &e)
}
