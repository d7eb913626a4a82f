// Package csv provides error types for CSV parsing.
package csv

import (
	"errors"
	"fmt"

	"github.com/shapestone/shape-rfc4180/internal/rfc4180"
)

// Grammar violation kinds. Every parse error wraps exactly one of them, so
// callers can branch with errors.Is.
var (
	// ErrUnterminatedQuote indicates the input ended inside a quoted field.
	ErrUnterminatedQuote = rfc4180.ErrUnterminatedQuote

	// ErrUnexpectedQuote indicates a quote inside an unquoted field, or text
	// following the closing quote of a quoted field.
	ErrUnexpectedQuote = rfc4180.ErrUnexpectedQuote

	// ErrMalformedTerminator indicates a CR not followed by LF, or a bare LF
	// outside a quoted field.
	ErrMalformedTerminator = rfc4180.ErrMalformedTerminator

	// ErrUnexpectedControl indicates a control character outside the grammar.
	ErrUnexpectedControl = rfc4180.ErrUnexpectedControl

	// ErrInvalidSeparator indicates a separator the grammar cannot use.
	ErrInvalidSeparator = rfc4180.ErrInvalidSeparator
)

// ErrClosed is returned when writing to a Decoder after Close.
var ErrClosed = errors.New("csv: decoder closed")

// ParseError represents a parsing error with position information.
// It provides detailed context about where the error occurred in the CSV data.
type ParseError struct {
	// Line is the line where the error occurred (1-indexed).
	Line int
	// Column is the column where the error occurred (1-indexed, in characters).
	Column int
	// Offset is the character offset of the error from the start of input.
	Offset int
	// Incomplete is true when the input ended before the document did.
	Incomplete bool
	// Err is the underlying grammar error.
	Err error
}

// Error returns a formatted error message with position information.
func (e *ParseError) Error() string {
	if e.Incomplete {
		return fmt.Sprintf("parse error at end of input (line %d, column %d): %v", e.Line, e.Column, errors.Unwrap(e.Err))
	}
	return fmt.Sprintf("parse error on line %d, column %d: %v", e.Line, e.Column, errors.Unwrap(e.Err))
}

// Unwrap returns the underlying error. The chain continues to the violation
// kind, e.g. ErrUnterminatedQuote.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// wrapError converts engine errors into ParseError. Other errors, such as
// read failures or context cancellation, pass through unchanged.
func wrapError(err error) error {
	var ge *rfc4180.GrammarError
	if errors.As(err, &ge) {
		return &ParseError{
			Line:   ge.Pos.Line,
			Column: ge.Pos.Column,
			Offset: ge.Pos.Offset,
			Err:    err,
		}
	}

	var ie *rfc4180.IncompleteInputError
	if errors.As(err, &ie) {
		return &ParseError{
			Line:       ie.Pos.Line,
			Column:     ie.Pos.Column,
			Offset:     ie.Pos.Offset,
			Incomplete: true,
			Err:        err,
		}
	}
	return err
}
