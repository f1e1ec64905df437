// Package apierr defines the gateway error taxonomy.
//
// Every error crossing a gateway boundary carries a Kind so callers can
// route on it: validation and authorization failures never reached the
// remote server, domain rejections are final, and only transport failures
// are retry candidates.
package apierr

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway error.
type Kind string

const (
	// KindValidation marks malformed or missing input, caught before any
	// remote call is issued.
	KindValidation Kind = "VALIDATION"
	// KindAuthorization marks a role-gate rejection.
	KindAuthorization Kind = "AUTHORIZATION"
	// KindAuth marks a rejected login.
	KindAuth Kind = "AUTH"
	// KindDomain marks a remote call that completed at the transport level
	// but reported failure. Final; never retried.
	KindDomain Kind = "DOMAIN"
	// KindTransport marks the absence of a usable response from the remote
	// server. The only retryable kind.
	KindTransport Kind = "TRANSPORT"
)

// Error is the gateway error type with a kind and optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error.
func New(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// Newf creates a new Error with a formatted message and no cause.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the kind of err, or the empty kind when err is not a
// gateway error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is a gateway error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return IsKind(err, KindValidation) }

// IsAuthorization reports whether err is a role-gate rejection.
func IsAuthorization(err error) bool { return IsKind(err, KindAuthorization) }

// IsAuth reports whether err is a rejected login.
func IsAuth(err error) bool { return IsKind(err, KindAuth) }

// IsDomain reports whether err is a remote-side rejection.
func IsDomain(err error) bool { return IsKind(err, KindDomain) }

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool { return IsKind(err, KindTransport) }

// Message returns the gateway message of err, or err.Error() for foreign
// errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
