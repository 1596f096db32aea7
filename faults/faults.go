// Package faults provides structured error types for the fieldgraph planner.
//
// This package defines fault codes and types that enable:
//   - Consistent error handling across the library and CLI
//   - Machine-readable codes for programmatic handling
//   - Fault wrapping with context preservation
//
// # Fault Codes
//
// Codes follow a hierarchical naming convention:
//   - PRECONDITION_*: caller handed the planner an input it never accepts
//   - INVALID_*: input validation failures
//   - UNSUPPORTED_*: closed-set membership failures
//   - ENCODE_*: output serialization failures
//
// # Usage
//
//	err := faults.New(faults.ErrCodeInvalidLayer, "dropout ratio %v outside (0, 1)", r)
//	if faults.Is(err, faults.ErrCodeInvalidLayer) {
//	    // Handle configuration fault
//	}
//
//	// Wrap existing errors
//	err := faults.Wrap(faults.ErrCodeInvalidConfig, origErr, "parse %s", path)
package faults

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable fault code.
type Code string

// Fault codes for different fault categories.
const (
	// Planner contract faults
	ErrCodePrecondition     Code = "PRECONDITION_VIOLATION"
	ErrCodeUnsupportedLayer Code = "UNSUPPORTED_LAYER_KIND"
	ErrCodeInvalidLayer     Code = "INVALID_LAYER_CONFIGURATION"

	// Input validation faults
	ErrCodeInvalidSchema   Code = "INVALID_SCHEMA"
	ErrCodeInvalidPipeline Code = "INVALID_PIPELINE"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Output faults
	ErrCodeEncode Code = "ENCODE_FAILED"
)

// Error is a structured fault with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable fault code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given fault code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the fault code from an error, if available.
// Returns empty string if the error chain holds no *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// StageError locates a fault at a specific position in a field's layer stack.
// The planner rejects a stack atomically, so the first offending stage is the
// only one reported.
type StageError struct {
	Variable string // field variable name
	Stage    int    // zero-based position in the stack
	Err      error  // underlying fault
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("field %q stage %d: %v", e.Variable, e.Stage, e.Err)
}

// Unwrap returns the underlying fault so code checks see through the locator.
func (e *StageError) Unwrap() error {
	return e.Err
}

// AtStage wraps err with its stack location. A nil err returns nil.
func AtStage(variable string, stage int, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Variable: variable, Stage: stage, Err: err}
}

// StageOf extracts the stack location from an error chain.
// The bool reports whether a location was present.
func StageOf(err error) (variable string, stage int, ok bool) {
	var e *StageError
	if errors.As(err, &e) {
		return e.Variable, e.Stage, true
	}
	return "", 0, false
}
