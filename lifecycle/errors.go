package lifecycle

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable classification of an engine error.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindConflict          Kind = "conflict"
	KindBadRequest        Kind = "bad_request"
	KindValidation        Kind = "validation_error"
	KindOperation         Kind = "operation_failed"
)

// Error carries a kind plus a human-readable message. A record that exists
// but belongs to another user surfaces as KindNotFound, never anything that
// would leak its existence.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// HTTPStatus maps the kind to its wire-level status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition, KindValidation:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func InvalidTransition(from, to Status) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("Invalid status transition from %s to %s", from, to),
	}
}

func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func BadRequestf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Operationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindOperation, Message: fmt.Sprintf(format, args...)}
}

// ErrorKind extracts the kind from any error, defaulting to operation_failed.
func ErrorKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOperation
}

// HTTPStatus maps any error to a wire-level status code.
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return http.StatusInternalServerError
}
