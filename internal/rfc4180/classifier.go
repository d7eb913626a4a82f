// Package rfc4180 implements the RFC 4180 character-driven state machine.
//
// The package has two parts: a Classifier that maps every input character to
// a grammar role through a fixed lookup table, and an Engine that consumes
// classified characters one at a time and applies the transition table.
// The Engine can be fed any number of chunks before Finish is called, and the
// state persists across chunk boundaries, so splitting the input differently
// never changes the result.
package rfc4180

import (
	"fmt"
	"unicode/utf8"
)

// Role is the grammar role of a single input character.
type Role uint8

const (
	EndOfInput Role = iota
	DoubleQuote
	Separator
	CarriageReturn
	LineFeed
	TextData
	Unknown
	numRoles
)

var roleNames = [numRoles]string{
	EndOfInput:     "EndOfInput",
	DoubleQuote:    "DoubleQuote",
	Separator:      "Separator",
	CarriageReturn: "CarriageReturn",
	LineFeed:       "LineFeed",
	TextData:       "TextData",
	Unknown:        "Unknown",
}

// String returns the role name.
func (r Role) String() string {
	if r < numRoles {
		return roleNames[r]
	}
	return fmt.Sprintf("Role(%d)", r)
}

// tableSize covers ASCII and Latin-1. Everything above it is text data
// unless it is the configured separator.
const tableSize = 256

// Classifier maps characters to grammar roles. It is immutable after
// construction and safe to share between engines and goroutines.
type Classifier struct {
	table [tableSize]Role
	sep   rune
}

// defaultClassifier is the comma classifier shared by every engine that
// does not configure its own separator.
var defaultClassifier = mustClassifier(',')

// DefaultClassifier returns the shared classifier for comma-separated input.
func DefaultClassifier() *Classifier {
	return defaultClassifier
}

// NewClassifier builds a classifier for the given separator.
//
// The separator may be any valid character except the double quote, CR, LF,
// NUL and the Unicode replacement character. Control characters such as TAB
// are allowed and override their default Unknown role.
func NewClassifier(sep rune) (*Classifier, error) {
	if !ValidSeparator(sep) {
		return nil, fmt.Errorf("rfc4180: %w %q", ErrInvalidSeparator, sep)
	}

	c := &Classifier{sep: sep}
	for i := 0; i < tableSize; i++ {
		switch {
		case i < 0x20 || i == 0x7f:
			c.table[i] = Unknown
		default:
			c.table[i] = TextData
		}
	}
	c.table['"'] = DoubleQuote
	c.table['\r'] = CarriageReturn
	c.table['\n'] = LineFeed
	if sep < tableSize {
		c.table[sep] = Separator
	}
	return c, nil
}

func mustClassifier(sep rune) *Classifier {
	c, err := NewClassifier(sep)
	if err != nil {
		panic(err)
	}
	return c
}

// ValidSeparator reports whether r can be used as a field separator.
func ValidSeparator(r rune) bool {
	return r > 0 && r != '"' && r != '\r' && r != '\n' &&
		utf8.ValidRune(r) && r != utf8.RuneError
}

// Separator returns the configured field separator.
func (c *Classifier) Separator() rune {
	return c.sep
}

// Classify returns the grammar role of r. It never returns EndOfInput;
// that role is only produced by Engine.Finish.
func (c *Classifier) Classify(r rune) Role {
	if r >= 0 && r < tableSize {
		return c.table[r]
	}
	if r == c.sep {
		return Separator
	}
	return TextData
}
