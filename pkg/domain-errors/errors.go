// Package domainerrors defines coded errors shared across services and the
// pipeline. Codes classify failures so callers can branch on kind without
// string matching, and so the HTTP layer can map them to status codes.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of domain failure.
type Code string

const (
	CodeInvalidInput     Code = "invalid_input"
	CodeNotFound         Code = "not_found"
	CodeConflict         Code = "conflict"
	CodeTimeout          Code = "timeout"
	CodeInternal         Code = "internal_error"
	CodeValidation       Code = "validation_failed"
	CodeExtractionFailed Code = "extraction_failed"

	// Reconciliation failure kinds. Each join-validation rule gets its own
	// code so a failed run names exactly which invariant broke.
	CodeExtractionIncomplete Code = "extraction_incomplete"
	CodeIDNotUnique          Code = "id_not_unique"
	CodeJoinMismatch         Code = "join_cardinality_mismatch"
	CodeAmbiguousColumn      Code = "ambiguous_column_resolution"
	CodeLoadFailed           Code = "load_failed"
)

// Error is a domain error with a machine-readable code.
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

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while keeping the chain intact.
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
	}
	return false
}

// CodeOf returns the code of the outermost domain error in the chain, or
// CodeInternal when err carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the message of the outermost domain error, or a generic
// message when err carries none.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}
