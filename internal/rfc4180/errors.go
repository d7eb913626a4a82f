package rfc4180

import (
	"errors"
	"fmt"
)

// Grammar violation kinds. GrammarError and IncompleteInputError unwrap to
// one of these, so callers can match with errors.Is.
var (
	// ErrUnterminatedQuote: input ended inside a quoted field.
	ErrUnterminatedQuote = errors.New("unterminated quoted field")

	// ErrUnexpectedQuote: a quote inside an unquoted field, or text right
	// after the closing quote of a quoted field.
	ErrUnexpectedQuote = errors.New("unexpected double quote")

	// ErrMalformedTerminator: CR not followed by LF, or a bare LF outside a
	// quoted field.
	ErrMalformedTerminator = errors.New("malformed record terminator")

	// ErrUnexpectedControl: a control character the grammar does not allow.
	ErrUnexpectedControl = errors.New("unexpected control character")
)

var (
	// ErrFinished is returned when characters are fed after Finish.
	ErrFinished = errors.New("input after end of input")

	// ErrIncompleteInput is returned by Finish when the terminal state was
	// not reached.
	ErrIncompleteInput = errors.New("input ended before a terminal state")

	// ErrInvalidSeparator is returned for separators the grammar cannot use.
	ErrInvalidSeparator = errors.New("invalid separator")
)

// Position locates a character in the input. Offset counts characters from
// zero; Line and Column are 1-indexed and Column counts characters.
type Position struct {
	Offset int
	Line   int
	Column int
}

// startPosition is the position of the first character of any input.
var startPosition = Position{Offset: 0, Line: 1, Column: 1}

// String formats the position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// GrammarError reports the first character that violates the grammar.
type GrammarError struct {
	// Role is the role of the offending character.
	Role Role
	// State is the engine state when the character arrived.
	State State
	// Char is the offending character.
	Char rune
	// Pos is where the character appeared.
	Pos Position
	// Err is the violation kind.
	Err error
}

func (e *GrammarError) Error() string {
	return fmt.Sprintf("rfc4180: %v at line %d, column %d (%s %q in state %s)",
		e.Err, e.Pos.Line, e.Pos.Column, e.Role, e.Char, e.State)
}

// Unwrap returns the violation kind.
func (e *GrammarError) Unwrap() error {
	return e.Err
}

// IncompleteInputError reports that Finish could not reach EndOfFile.
type IncompleteInputError struct {
	// State is the engine state when input ended.
	State State
	// Pos is the position just past the last character.
	Pos Position
	// Err is the violation kind, e.g. ErrUnterminatedQuote.
	Err error
}

func (e *IncompleteInputError) Error() string {
	return fmt.Sprintf("rfc4180: incomplete input: %v at line %d, column %d (state %s)",
		e.Err, e.Pos.Line, e.Pos.Column, e.State)
}

// Unwrap returns the violation kind.
func (e *IncompleteInputError) Unwrap() error {
	return e.Err
}
