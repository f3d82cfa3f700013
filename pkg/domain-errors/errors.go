// Package domainerrors provides coded errors for the service boundary.
// Services wrap infrastructure errors with a code and a stable message so
// transport layers can translate them without string matching.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for transport mapping and policy decisions.
type Code string

const (
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal"
	CodeUnavailable  Code = "unavailable"

	// Domain-specific codes surfaced by the matching and assignment paths.
	// Uncertainty (ambiguous / no match) is a result value, not an error;
	// these codes cover the cases where a caller demanded certainty anyway.
	CodeAmbiguousMatch        Code = "ambiguous_match"
	CodeNoMatch               Code = "no_match"
	CodeOverlapViolation      Code = "overlap_violation"
	CodeJurisdictionViolation Code = "jurisdiction_violation"
	CodeSeatConflict          Code = "seat_conflict"
	CodeRetiredJudge          Code = "retired_judge"
	CodeUpstreamData          Code = "upstream_data"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. Wrapping nil
// returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		de = nil
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error is not coded.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code onto an HTTP status for the read/admin API.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound, CodeNoMatch:
		return http.StatusNotFound
	case CodeConflict, CodeAmbiguousMatch, CodeOverlapViolation,
		CodeJurisdictionViolation, CodeSeatConflict, CodeRetiredJudge:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeUpstreamData:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
