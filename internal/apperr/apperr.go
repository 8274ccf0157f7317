// Package apperr defines the error kinds shared by the service and transport layers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an application error.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindConflict          Kind = "conflict"
	KindProcessor         Kind = "processor"
	KindUnauthorized      Kind = "unauthorized"
	KindInternal          Kind = "internal"
)

// Error is an application error carrying a kind and a user facing message.
type Error struct {
	kind   Kind
	msg    string
	fields []string
	cause  error
}

// Sentinels usable with errors.Is. They match any *Error of the same kind.
var (
	ErrValidation        = &Error{kind: KindValidation}
	ErrNotFound          = &Error{kind: KindNotFound}
	ErrInvalidTransition = &Error{kind: KindInvalidTransition}
	ErrConflict          = &Error{kind: KindConflict}
	ErrProcessor         = &Error{kind: KindProcessor}
	ErrUnauthorized      = &Error{kind: KindUnauthorized}
)

func (e *Error) Error() string {
	if e.msg == "" {
		return string(e.kind)
	}

	return e.msg
}

// Kind returns the error kind.
func (e *Error) Kind() Kind {
	return e.kind
}

// Fields returns the offending input fields of a validation error.
func (e *Error) Fields() []string {
	return e.fields
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.msg == "" && t.kind == e.kind
}

// Validation reports missing or malformed input fields.
func Validation(fields ...string) *Error {
	return &Error{
		kind:   KindValidation,
		msg:    "invalid or missing fields: " + strings.Join(fields, ", "),
		fields: fields,
	}
}

// NotFound reports an unknown entity.
func NotFound(format string, args ...any) *Error {
	return &Error{kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

// InvalidTransition reports an illegal state change.
func InvalidTransition(format string, args ...any) *Error {
	return &Error{kind: KindInvalidTransition, msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a write that contradicts already stored state.
func Conflict(format string, args ...any) *Error {
	return &Error{kind: KindConflict, msg: fmt.Sprintf(format, args...)}
}

// Processor reports a failure of an external payment system.
func Processor(cause error, format string, args ...any) *Error {
	return &Error{kind: KindProcessor, msg: fmt.Sprintf(format, args...), cause: cause}
}

// Unauthorized reports missing or invalid credentials.
func Unauthorized(msg string) *Error {
	return &Error{kind: KindUnauthorized, msg: msg}
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}

	return KindInternal
}

// FieldsOf returns validation fields carried by err, if any.
func FieldsOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.fields
	}

	return nil
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInvalidTransition:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindProcessor:
		return http.StatusBadGateway
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns a message safe to show to API clients.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}

	return "internal server error"
}
