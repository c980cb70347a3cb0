// Package domainerrors defines the coded error taxonomy shared by all
// services. Transport translates codes to HTTP statuses; internal detail
// never reaches the client.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	// CodeNotConfigured: a required secret or credential is absent.
	CodeNotConfigured Code = "not_configured"
	// CodeInvalidInput: malformed or missing caller input.
	CodeInvalidInput Code = "invalid_input"
	// CodeUnauthorized: signature, state or credential mismatch; expired session.
	CodeUnauthorized Code = "unauthorized"
	// CodeRateLimited: quota exceeded.
	CodeRateLimited Code = "rate_limited"
	// CodeUpstream: external provider or store unreachable or erroring.
	CodeUpstream Code = "upstream_error"
	// CodeConflict: unique-key violation (duplicate email/username).
	CodeConflict Code = "conflict"
	// CodeDecode: malformed cookie or payload; treated as absent session.
	CodeDecode   Code = "decode_error"
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. Message is safe to show to clients.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf extracts the domain code from an error chain, defaulting to
// CodeInternal for errors that were never classified.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the client-safe message for an error chain. Unclassified
// errors get a generic message so internals never leak.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a domain code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotConfigured:
		return http.StatusNotImplemented
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeDecode:
		return http.StatusUnauthorized
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUpstream:
		return http.StatusServiceUnavailable
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
