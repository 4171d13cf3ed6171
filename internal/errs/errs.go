// Package errs defines the gateway's closed error taxonomy (spec §7).
// These are kinds, not dynamic messages: handlers compare against the
// sentinels with errors.Is/errors.As and never leak internals to callers.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a classified gateway error carrying the HTTP status a
// boundary handler should translate it to.
type Error struct {
	Code       string
	Message    string
	HTTPStatus int
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// With returns a copy of e annotated with a lower-level cause, for
// logging, without changing the classification callers key off.
func (e *Error) With(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

// Is lets errors.Is match by Code, since sentinels are compared by
// identity elsewhere but handler code may receive a wrapped copy.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// Client input errors.
var (
	ErrBadXML              = &Error{Code: "BAD_XML", Message: "request body is empty or not well-formed XML", HTTPStatus: http.StatusBadRequest}
	ErrXSDValidationFailed = &Error{Code: "XSD_VALIDATION_FAILED", Message: "document failed schema validation", HTTPStatus: http.StatusBadRequest}
	ErrInvalidURL          = &Error{Code: "INVALID_URL", Message: "callback URL is not a valid absolute URL for this environment", HTTPStatus: http.StatusBadRequest}
	ErrInvalidQuoteID      = &Error{Code: "INVALID_QUOTE_ID", Message: "quote id is malformed", HTTPStatus: http.StatusBadRequest}
)

// Quote lifecycle errors.
var (
	ErrQuoteNotFound = &Error{Code: "QUOTE_NOT_FOUND", Message: "quote not found", HTTPStatus: http.StatusNotFound}
	ErrQuoteExpired  = &Error{Code: "QUOTE_EXPIRED", Message: "quote has expired", HTTPStatus: http.StatusGone}
	ErrRateMismatch  = &Error{Code: "RATE_MISMATCH", Message: "instructed amount or rate does not match the bound quote", HTTPStatus: http.StatusUnprocessableEntity}
)

// Invariant errors: never surfaced verbatim to clients.
var (
	ErrInvariantViolation = &Error{Code: "INVARIANT_VIOLATION", Message: "internal error", HTTPStatus: http.StatusInternalServerError}
)

// Transport errors: recorded as events, not surfaced to the original caller.
var (
	ErrCallbackDeliveryFailed = &Error{Code: "CALLBACK_DELIVERY_FAILED", Message: "callback delivery failed after retries"}
)

// Infra errors.
var (
	ErrDBUnavailable  = &Error{Code: "DB_UNAVAILABLE", Message: "storage backend unavailable", HTTPStatus: http.StatusServiceUnavailable}
	ErrSchemaNotLoaded = &Error{Code: "SCHEMA_NOT_LOADED", Message: "no schema loaded for message type", HTTPStatus: http.StatusInternalServerError}
)

// Throttling.
var (
	ErrRateLimitExceeded = &Error{Code: "RATE_LIMIT_EXCEEDED", Message: "too many requests", HTTPStatus: http.StatusTooManyRequests}
)

// NotFound is a generic 404 for audit lookups of unknown identifiers.
func NotFound(what string) *Error {
	return &Error{Code: "NOT_FOUND", Message: what + " not found", HTTPStatus: http.StatusNotFound}
}
