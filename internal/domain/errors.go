package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies catalogue failures.
type Kind string

const (
	KindUninitialized Kind = "uninitialized" // store used before ready, after close, or ready failed
	KindStorage       Kind = "storage"       // the backing read or write was rejected
	KindNotFound      Kind = "not_found"     // delete/get target does not exist
	KindAuthRequired  Kind = "auth_required" // remote operation without a signed-in user
	KindRemote        Kind = "remote"        // backend call returned an error payload
	KindInvalid       Kind = "invalid"       // input failed validation
)

// HTTPStatus returns the status the companion API answers with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthRequired:
		return http.StatusUnauthorized
	case KindInvalid:
		return http.StatusBadRequest
	case KindRemote:
		return http.StatusBadGateway
	case KindUninitialized:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a catalogue error with a kind, the failing operation and an
// optional cause and field details.
type Error struct {
	Kind    Kind              `json:"kind"`
	Op      string            `json:"op,omitempty"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrNotFound) works
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinel errors for use with errors.Is().
var (
	ErrUninitialized = &Error{Kind: KindUninitialized, Message: "store not initialized"}
	ErrStorage       = &Error{Kind: KindStorage, Message: "storage error"}
	ErrNotFound      = &Error{Kind: KindNotFound, Message: "not found"}
	ErrAuthRequired  = &Error{Kind: KindAuthRequired, Message: "User not authenticated"}
	ErrRemote        = &Error{Kind: KindRemote, Message: "remote error"}
	ErrInvalid       = &Error{Kind: KindInvalid, Message: "validation failed"}
)

// Storage wraps a rejected backing read/write.
func Storage(op string, cause error) *Error {
	return &Error{Kind: KindStorage, Op: op, Message: "storage error", cause: cause}
}

// Uninitialized reports a store that is not (or no longer) usable.
func Uninitialized(op string, cause error) *Error {
	return &Error{Kind: KindUninitialized, Op: op, Message: "store not initialized", cause: cause}
}

// NotFound reports a missing target.
func NotFound(op, message string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

// AuthRequired reports a remote call attempted without a user.
func AuthRequired(op string) *Error {
	return &Error{Kind: KindAuthRequired, Op: op, Message: "User not authenticated"}
}

// Remote carries the generic message shown to the user; cause keeps the
// backend error for logs and errors.As.
func Remote(op, message string, cause error) *Error {
	return &Error{Kind: KindRemote, Op: op, Message: message, cause: cause}
}

// Invalid reports a validation failure with per-field messages.
func Invalid(message string, details map[string]string) *Error {
	return &Error{Kind: KindInvalid, Message: message, Details: details}
}

// KindOf returns the Kind of err, or KindStorage for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}
