package services

import (
	"github.com/pkg/errors"
)

type ErrorKind string

const (
	KindBadRequest      ErrorKind = "bad_request"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
	KindNotFound        ErrorKind = "not_found"
	KindConflict        ErrorKind = "conflict"
	KindInternal        ErrorKind = "internal"
)

// Error is returned by JobBoard operations. Message is safe to show to the
// caller.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func internalError(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, cause: cause}
}

func KindOf(err error) (ErrorKind, bool) {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Kind, true
	}
	return "", false
}

func IsKind(err error, kind ErrorKind) bool {
	actual, ok := KindOf(err)
	return ok && actual == kind
}

var (
	errNotAuthenticated   = newError(KindUnauthenticated, "Not authenticated")
	errInvalidCredentials = newError(KindUnauthenticated, "Invalid email or password")
	errAccessDenied       = newError(KindForbidden, "Access denied")
	errMissingFields      = newError(KindBadRequest, "Missing required fields")
)
