// Package apperr defines the domain error taxonomy shared by the booking
// and search services. Handlers map each kind to an HTTP status; the kinds
// are deliberately closed so callers can present precise messages.
package apperr

import "errors"

type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInvalidTransition Kind = "invalid_transition"
	KindAuthorization     Kind = "authorization"
)

// Error is a domain failure with a kind and, where applicable, the
// offending field.
type Error struct {
	Kind    Kind   `json:"kind"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func InvalidTransition(message string) *Error {
	return &Error{Kind: KindInvalidTransition, Message: message}
}

func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// KindOf returns the domain kind of err, or "" when err is not a domain
// error (infrastructure failures stay generic).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsValidation(err error) bool        { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool          { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool          { return KindOf(err) == KindConflict }
func IsInvalidTransition(err error) bool { return KindOf(err) == KindInvalidTransition }
func IsAuthorization(err error) bool     { return KindOf(err) == KindAuthorization }
