package rfc4180

import "fmt"

// State is a position in the RFC 4180 grammar.
type State uint8

const (
	// Init is the start of a field, outside quotes.
	Init State = iota
	// Escaped is inside an open quoted field.
	Escaped
	// NonEscaped is inside an unquoted field after at least one character.
	NonEscaped
	// EndOfEscaped follows a quote seen in Escaped: either the closing quote
	// or the first half of a doubled quote.
	EndOfEscaped
	// EndOfRecord follows a CR and expects the LF of the terminator.
	EndOfRecord
	// EndOfFile is terminal.
	EndOfFile
	numStates
)

var stateNames = [numStates]string{
	Init:         "Init",
	Escaped:      "Escaped",
	NonEscaped:   "NonEscaped",
	EndOfEscaped: "EndOfEscaped",
	EndOfRecord:  "EndOfRecord",
	EndOfFile:    "EndOfFile",
}

// String returns the state name.
func (s State) String() string {
	if s < numStates {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// action is the buffer operation performed on a transition.
type action uint8

const (
	actionNone           action = iota
	actionAppend                // append the character to the field
	actionAppendQuote           // append one literal quote (doubled-quote escape)
	actionEndField              // flush the field into the record
	actionEndFieldRecord        // flush the field, then the record
	actionEndRecord             // flush the record
	actionFlushPending          // end the record only if it has fields
	actionError
)

// transition is one cell of the transition table.
type transition struct {
	next   State
	action action
	err    error
}

// transitions is the complete grammar: [state][role] -> transition.
var transitions [numStates][numRoles]transition

func init() {
	initTransitions()
}

func to(next State, a action) transition {
	return transition{next: next, action: a}
}

func reject(err error) transition {
	return transition{action: actionError, err: err}
}

func initTransitions() {
	// Unknown is a violation everywhere, and anything reaching the terminal
	// state is input after the end. Specific cells override below.
	for s := State(0); s < numStates; s++ {
		for r := Role(0); r < numRoles; r++ {
			transitions[s][r] = reject(ErrUnexpectedControl)
		}
	}

	transitions[Init][EndOfInput] = to(EndOfFile, actionFlushPending)
	transitions[Init][DoubleQuote] = to(Escaped, actionNone)
	transitions[Init][Separator] = to(Init, actionEndField)
	transitions[Init][CarriageReturn] = to(EndOfRecord, actionEndField)
	transitions[Init][LineFeed] = reject(ErrMalformedTerminator)
	transitions[Init][TextData] = to(NonEscaped, actionAppend)

	transitions[Escaped][EndOfInput] = reject(ErrUnterminatedQuote)
	transitions[Escaped][DoubleQuote] = to(EndOfEscaped, actionNone)
	transitions[Escaped][Separator] = to(Escaped, actionAppend)
	transitions[Escaped][CarriageReturn] = to(Escaped, actionAppend)
	transitions[Escaped][LineFeed] = to(Escaped, actionAppend)
	transitions[Escaped][TextData] = to(Escaped, actionAppend)

	transitions[NonEscaped][EndOfInput] = to(EndOfFile, actionEndFieldRecord)
	transitions[NonEscaped][DoubleQuote] = reject(ErrUnexpectedQuote)
	transitions[NonEscaped][Separator] = to(Init, actionEndField)
	transitions[NonEscaped][CarriageReturn] = to(EndOfRecord, actionEndField)
	transitions[NonEscaped][LineFeed] = reject(ErrMalformedTerminator)
	transitions[NonEscaped][TextData] = to(NonEscaped, actionAppend)

	transitions[EndOfEscaped][EndOfInput] = to(EndOfFile, actionEndFieldRecord)
	transitions[EndOfEscaped][DoubleQuote] = to(Escaped, actionAppendQuote)
	transitions[EndOfEscaped][Separator] = to(Init, actionEndField)
	transitions[EndOfEscaped][CarriageReturn] = to(EndOfRecord, actionEndField)
	transitions[EndOfEscaped][LineFeed] = reject(ErrMalformedTerminator)
	transitions[EndOfEscaped][TextData] = reject(ErrUnexpectedQuote)

	// A CR must be followed by LF and nothing else.
	for r := Role(0); r < numRoles; r++ {
		transitions[EndOfRecord][r] = reject(ErrMalformedTerminator)
	}
	transitions[EndOfRecord][LineFeed] = to(Init, actionEndRecord)

	for r := Role(0); r < numRoles; r++ {
		transitions[EndOfFile][r] = reject(ErrFinished)
	}
	transitions[EndOfFile][EndOfInput] = to(EndOfFile, actionNone)
}
