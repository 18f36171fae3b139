// Package apperr defines the application error taxonomy.
//
// Stores and the membership ledger return *apperr.Error values (or wrap
// them) instead of letting raw driver errors cross the feature boundary.
// The feature layer maps each kind to an HTTP status plus a machine-readable
// code and a human-readable detail string.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for HTTP mapping.
type Kind int

const (
	KindValidation   Kind = iota // missing/malformed input → 400
	KindNotFound                 // entity absent → 404
	KindUnauthorized             // no or invalid session → 401
	KindForbidden                // role check failed → 403
	KindConflict                 // state precondition failed → 400
)

// Error carries a kind, a stable machine code, and a human detail string.
type Error struct {
	Kind   Kind
	Code   string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Code
	}
	return e.Code + ": " + e.Detail
}

// Validation builds a 400 validation error.
func Validation(code, detail string) *Error {
	return &Error{Kind: KindValidation, Code: code, Detail: detail}
}

// NotFound builds a 404 error.
func NotFound(code, detail string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Detail: detail}
}

// Unauthorized builds a 401 error.
func Unauthorized(code, detail string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Detail: detail}
}

// Forbidden builds a 403 error.
func Forbidden(code, detail string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Detail: detail}
}

// Conflict builds a 400 conflict error (already-member, cannot-kick-self,
// and similar state preconditions).
func Conflict(code, detail string) *Error {
	return &Error{Kind: KindConflict, Code: code, Detail: detail}
}

// From extracts an *Error from err's chain, or nil.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// Status returns the HTTP status for err. Unclassified errors map to 500.
func Status(err error) int {
	ae := From(err)
	if ae == nil {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
