package domain

import "errors"

// Result is the tagged outcome handed to the UI: callers branch on Success
// instead of inspecting error types.
type Result[T any] struct {
	Success bool              `json:"success"`
	Data    T                 `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Kind    Kind              `json:"kind,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Capture folds a (value, error) pair into a Result. The message of a
// catalogue *Error is used as-is; anything else is reported generically.
func Capture[T any](v T, err error) Result[T] {
	if err == nil {
		return Result[T]{Success: true, Data: v}
	}
	res := Result[T]{Kind: KindOf(err)}
	if e, ok := asError(err); ok {
		res.Error = e.Message
		res.Details = e.Details
	} else {
		res.Error = "unexpected error"
	}
	return res
}

// Fail builds a failed Result from err.
func Fail[T any](err error) Result[T] {
	var zero T
	return Capture(zero, err)
}

func asError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
