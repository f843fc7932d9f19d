// Package errors provides error handling utilities.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeFetch indicates a data source was unavailable or returned a bad response
	TypeFetch Type = "FETCH_ERROR"

	// TypeSchema indicates an expected column is missing or has the wrong shape
	TypeSchema Type = "SCHEMA_ERROR"

	// TypeDateParse indicates a date value did not match M/D/YY
	TypeDateParse Type = "DATE_PARSE_ERROR"

	// TypeJoinAmbiguity indicates a join key matched more than one row
	TypeJoinAmbiguity Type = "JOIN_AMBIGUITY_ERROR"

	// TypeInsufficientData indicates too few observations for a computation
	TypeInsufficientData Type = "INSUFFICIENT_DATA"

	// TypeInput indicates an input validation error
	TypeInput Type = "INPUT_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// HasType checks if the error is of a specific type
func (e *Error) HasType(t Type) bool {
	return e.Type == t
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsType reports whether any error in err's chain is a *Error of type t.
func IsType(err error, t Type) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Type == t {
			return true
		}
		err = e.Cause
	}
	return false
}

// TypeOf returns the type of the outermost *Error in err's chain, or "".
func TypeOf(err error) Type {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}

// Fetch creates a fetch error for the given location
func Fetch(location string, cause error) *Error {
	return Wrapf(TypeFetch, cause, "fetch %s", location).WithContext("location", location)
}

// Schema creates a schema error
func Schema(table, message string) *Error {
	return Newf(TypeSchema, "%s: %s", table, message).WithContext("table", table)
}

// DateParse creates a date parse error for the offending value
func DateParse(value string, cause error) *Error {
	return Wrapf(TypeDateParse, cause, "invalid date %q", value).WithContext("value", value)
}

// JoinAmbiguity creates a join ambiguity error for a non-unique key
func JoinAmbiguity(join, key string) *Error {
	return Newf(TypeJoinAmbiguity, "%s: key %q is not unique", join, key).WithContext("key", key)
}

// InsufficientData creates an insufficient data error
func InsufficientData(message string) *Error {
	return New(TypeInsufficientData, message)
}

// Input creates an input error
func Input(message string) *Error {
	return New(TypeInput, message)
}

// Config creates a configuration error
func Config(message string) *Error {
	return New(TypeConfig, message)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
