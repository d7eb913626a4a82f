package rfc4180

import "unicode/utf8"

// Engine is the RFC 4180 state machine.
//
// Feed it with Process (any number of times, any chunk sizes), then call
// Finish once. Records become available as record terminators are
// recognised. After an error the engine is poisoned: every further call
// returns the same error until Reset.
//
// An Engine is not safe for concurrent use. Distinct engines share nothing
// but their read-only Classifier.
type Engine struct {
	class *Classifier
	state State

	// field accumulates the current field as UTF-8.
	field []byte
	// fields is the in-progress record.
	fields []string
	// records is the output; each appended record is never touched again.
	records [][]string
	// starts holds the start position of each record in records.
	starts []Position

	pos         Position
	recordStart Position
	inRecord    bool
	fieldsHint  int

	err error
}

// NewEngine creates an engine using classifier c. A nil classifier selects
// DefaultClassifier.
func NewEngine(c *Classifier) *Engine {
	if c == nil {
		c = defaultClassifier
	}
	return &Engine{
		class:  c,
		state:  Init,
		field:  make([]byte, 0, 64),
		fields: make([]string, 0, 8),
		pos:    startPosition,
	}
}

// Reset returns the engine to its initial state so it can parse another
// document. Buffer capacity is kept; records already returned by Records or
// Drain stay valid.
func (e *Engine) Reset() {
	e.state = Init
	e.field = e.field[:0]
	e.fields = e.fields[:0]
	e.records = nil
	e.starts = nil
	e.pos = startPosition
	e.recordStart = Position{}
	e.inRecord = false
	e.fieldsHint = 0
	e.err = nil
}

// Classifier returns the classifier in use.
func (e *Engine) Classifier() *Classifier {
	return e.class
}

// State returns the current grammar state.
func (e *Engine) State() State {
	return e.state
}

// Pos returns the position of the next character to be consumed.
func (e *Engine) Pos() Position {
	return e.pos
}

// Err returns the error that poisoned the engine, if any.
func (e *Engine) Err() error {
	return e.err
}

// IsComplete reports whether the engine reached EndOfFile.
func (e *Engine) IsComplete() bool {
	return e.state == EndOfFile
}

// Records returns the completed records held by the engine. It is only
// meaningful for a well-formed document after Finish returned nil.
func (e *Engine) Records() [][]string {
	return e.records
}

// Positions returns the start position of each record returned by Records.
func (e *Engine) Positions() []Position {
	return e.starts
}

// Drain hands over the completed records and forgets them. Streaming
// consumers call it between chunks to keep memory bounded.
func (e *Engine) Drain() [][]string {
	out := e.records
	e.records = nil
	e.starts = nil
	return out
}

// Process consumes every character of chunk in order.
func (e *Engine) Process(chunk []rune) error {
	if e.err != nil {
		return e.err
	}
	for _, r := range chunk {
		if err := e.consume(r); err != nil {
			return err
		}
	}
	return nil
}

// ProcessString consumes the characters of s. Invalid UTF-8 bytes are
// consumed as U+FFFD.
func (e *Engine) ProcessString(s string) error {
	if e.err != nil {
		return e.err
	}
	for _, r := range s {
		if err := e.consume(r); err != nil {
			return err
		}
	}
	return nil
}

// ProcessRune consumes a single character.
func (e *Engine) ProcessRune(r rune) error {
	if e.err != nil {
		return e.err
	}
	return e.consume(r)
}

// Finish feeds the end-of-input marker, flushing any pending field and
// record, and checks that the terminal state was reached.
func (e *Engine) Finish() error {
	if e.err != nil {
		return e.err
	}

	t := &transitions[e.state][EndOfInput]
	if t.action == actionError {
		e.err = &IncompleteInputError{State: e.state, Pos: e.pos, Err: t.err}
		return e.err
	}
	e.apply(t, 0)

	if e.state != EndOfFile {
		e.err = &IncompleteInputError{State: e.state, Pos: e.pos, Err: ErrIncompleteInput}
		return e.err
	}
	return nil
}

func (e *Engine) consume(r rune) error {
	role := e.class.Classify(r)
	t := &transitions[e.state][role]
	if t.action == actionError {
		e.err = &GrammarError{Role: role, State: e.state, Char: r, Pos: e.pos, Err: t.err}
		return e.err
	}

	if !e.inRecord {
		e.recordStart = e.pos
		e.inRecord = true
	}
	e.apply(t, r)

	e.pos.Offset++
	if r == '\n' {
		e.pos.Line++
		e.pos.Column = 1
	} else {
		e.pos.Column++
	}
	return nil
}

func (e *Engine) apply(t *transition, r rune) {
	switch t.action {
	case actionAppend:
		if r < utf8.RuneSelf {
			e.field = append(e.field, byte(r))
		} else {
			e.field = utf8.AppendRune(e.field, r)
		}
	case actionAppendQuote:
		e.field = append(e.field, '"')
	case actionEndField:
		e.endField()
	case actionEndFieldRecord:
		e.endField()
		e.endRecord()
	case actionEndRecord:
		e.endRecord()
	case actionFlushPending:
		if len(e.fields) > 0 {
			e.endRecord()
		}
	}
	e.state = t.next
}

func (e *Engine) endField() {
	e.fields = append(e.fields, string(e.field))
	e.field = e.field[:0]
}

func (e *Engine) endRecord() {
	if e.fieldsHint == 0 {
		e.fieldsHint = len(e.fields)
	}
	e.records = append(e.records, e.fields)
	e.starts = append(e.starts, e.recordStart)
	e.fields = make([]string, 0, e.fieldsHint)
	e.inRecord = false
}
