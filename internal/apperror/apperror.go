// Package apperror defines the failure taxonomy shared by services and the
// HTTP boundary. Services return these; the handler layer maps kinds to
// status codes. Nothing in between catches.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindAlreadyExists
	KindInvalidCredentials
	KindInternal
)

// FieldError is one failing input field, surfaced verbatim in the response
// envelope's errors list.
type FieldError struct {
	Form    string `json:"form"`
	Message string `json:"message"`
}

// Error carries a kind, a client-safe message, optional per-field details
// and an optional wrapped cause (logged, never sent to clients).
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Validation builds a field-level validation failure.
func Validation(fields []FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// ValidationMsg builds a single-field validation failure.
func ValidationMsg(form, message string) *Error {
	return Validation([]FieldError{{Form: form, Message: message}})
}

// Unauthorized signals a missing or unusable credential.
func Unauthorized(message string) *Error {
	if message == "" {
		message = "authentication failed, please login."
	}
	return &Error{Kind: KindUnauthorized, Message: message}
}

// Forbidden signals an authenticated but unpermitted actor.
func Forbidden() *Error {
	return &Error{Kind: KindForbidden, Message: "you do not have permission to perform this action."}
}

// NotFound signals an absent entity, named by its schema.
func NotFound(schema string) *Error {
	return &Error{Kind: KindNotFound, Message: schema + " not found."}
}

// AlreadyExists signals a uniqueness violation, named by its schema.
func AlreadyExists(schema string) *Error {
	return &Error{Kind: KindAlreadyExists, Message: schema + " already exists."}
}

// InvalidCredentials is deliberately identical for unknown user and wrong
// password, preventing user enumeration.
func InvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "wrong username or password"}
}

// Internal wraps an unexpected failure with a generic client message.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "an unexpected error occurred on the server.", cause: cause}
}

// From returns err as *Error, wrapping unknown errors as Internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
