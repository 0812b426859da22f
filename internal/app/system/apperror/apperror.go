// Package apperror defines the failure taxonomy shared by the stores,
// the repository, and the HTTP handlers. Every repository-level failure
// is one of these kinds; handlers translate them into status codes and
// the caller decides what to do (for version conflicts: re-fetch and
// re-apply, since nothing in this codebase auto-merges).
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no principal was supplied.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrPermissionDenied means the principal lacks the required role.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound means the entity or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument means malformed input (empty name, bad email, ...).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrVersionConflict means the optimistic-concurrency check failed:
	// the entity changed since the caller read it.
	ErrVersionConflict = errors.New("version conflict")
	// ErrAlreadyInRole is the idempotency guard on role addition.
	ErrAlreadyInRole = errors.New("already in role")
	// ErrTransport wraps opaque store or network failures.
	ErrTransport = errors.New("transport failure")
)

// Error pairs a taxonomy kind with a human-readable message and an
// optional offending field. It unwraps to its kind so callers use
// errors.Is against the sentinels above.
type Error struct {
	Kind    error
	Message string
	Field   string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Unauthenticated reports a missing principal.
func Unauthenticated() *Error {
	return &Error{Kind: ErrUnauthenticated, Message: "sign in required"}
}

// PermissionDenied reports a principal without the required role.
func PermissionDenied(msg string) *Error {
	return &Error{Kind: ErrPermissionDenied, Message: msg}
}

// NotFound reports a missing entity.
func NotFound(resource, id string) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("%s %q not found", resource, id)}
}

// InvalidArgument reports malformed input on a named field.
func InvalidArgument(field, msg string) *Error {
	return &Error{Kind: ErrInvalidArgument, Message: msg, Field: field}
}

// VersionConflict reports a failed optimistic-concurrency check.
func VersionConflict(resource, id string) *Error {
	return &Error{
		Kind:    ErrVersionConflict,
		Message: fmt.Sprintf("%s %q was modified by another user; refresh and try again", resource, id),
	}
}

// AlreadyInRole reports a duplicate role grant.
func AlreadyInRole(role string) *Error {
	return &Error{Kind: ErrAlreadyInRole, Message: fmt.Sprintf("user is already a %s", role)}
}

// Transport wraps an underlying store or network error.
func Transport(err error) *Error {
	return &Error{Kind: ErrTransport, Message: fmt.Sprintf("store unavailable: %v", err)}
}

// Code returns the wire identifier for an error, for JSON error bodies.
// Unknown errors map to "internal".
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrVersionConflict):
		return "version_conflict"
	case errors.Is(err, ErrAlreadyInRole):
		return "already_in_role"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "internal"
	}
}
