package readtext

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by [Reader]. They are wrapped in a [*ParseError]
// carrying the exact location, so use [errors.Is] to test for them.
var (
	// ErrQuote indicates a malformed quoted field: either an unterminated
	// quote at the end of a line, or data following the closing quote that
	// is neither a delimiter nor the end of the line.
	ErrQuote = errors.New("malformed quoted field")

	// ErrFieldCount indicates a row whose field count does not match the
	// expected column count.
	ErrFieldCount = errors.New("wrong number of fields")

	// ErrColumnIndex indicates a usecols entry that is out of range for the
	// current row's field count.
	ErrColumnIndex = errors.New("column index out of range")

	// ErrConversion indicates a token that could not be converted to the
	// target field type.
	ErrConversion = errors.New("conversion failed")

	// ErrNonString is returned by a line source whose underlying sequence
	// yielded an item that is not a string.
	ErrNonString = errors.New("non-string returned while reading data")
)

// ParseError reports a failure during the read pass with its exact location.
// Row and Column are 1-based; Row counts data rows (blank and comment lines
// are not data rows), Column is the position in the input row after usecols
// resolution.
type ParseError struct {
	Row    int
	Column int
	Err    error
}

// Error returns a formatted message with location information.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at row %d, column %d: %v", e.Row, e.Column, e.Err)
}

// Unwrap returns the underlying error for use with [errors.Is] and [errors.As].
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConfigError reports an invalid parser configuration. Configuration errors
// are raised eagerly, before any row is read.
type ConfigError struct {
	Reason string
}

// Error returns the configuration failure description.
func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}

// configErrorf builds a ConfigError from a format string.
func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}
