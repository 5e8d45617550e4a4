// Package errors defines stable error codes for all dupfind failure modes.
//
// Capacity exhaustion (full bucket, full vocabulary) is deliberately not an
// error: those paths degrade recall via boolean returns and never surface
// through this package.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code identifies a failure mode with a stable, machine-readable string.
type Code string

const (
	// ConfigInvalid indicates an invalid construction parameter, such as a
	// dimension mismatch between the embedder and the LSH tables, or a bit
	// width outside 1..64. Fatal at construction time.
	ConfigInvalid Code = "CONFIG_INVALID"
	// NotFound indicates a lookup against an absent block id or hash.
	NotFound Code = "NOT_FOUND"
	// SerializationFailed indicates malformed persisted state on load.
	// Fails only the load call; the in-memory index is untouched.
	SerializationFailed Code = "SERIALIZATION_FAILED"
	// ParseFailed indicates the block splitter could not parse a source file.
	ParseFailed Code = "PARSE_FAILED"
	// StorageFailed indicates a findings-store (sqlite) operation failed.
	StorageFailed Code = "STORAGE_FAILED"
	// Internal indicates an unexpected error.
	Internal Code = "INTERNAL_ERROR"
)

// Error is a dupfind error carrying a stable code, a human message, and an
// optional wrapped cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf extracts the Code from err, or Internal if err is not an *Error.
func CodeOf(err error) Code {
	var de *Error
	if stderrors.As(err, &de) {
		return de.Code
	}
	return Internal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
