package csv

import (
	"io"
	"unicode/utf8"

	"github.com/shapestone/shape-rfc4180/internal/rfc4180"
	"golang.org/x/text/transform"
)

// Decoder parses CSV from bytes pushed through Write, for sources that
// deliver data in pieces: network frames, callbacks, pipes.
//
// Pieces may be split anywhere, including inside a multi-byte UTF-8
// sequence; the records are the same as if the whole input had been written
// at once. Close marks the end of input and reports a document that ended
// inside a quoted field or after a lone CR.
//
// Example:
//
//	dec := csv.NewDecoder()
//	for frame := range frames {
//	    if _, err := dec.Write(frame); err != nil {
//	        return err
//	    }
//	    for _, record := range dec.Drain() {
//	        handle(record)
//	    }
//	}
//	if err := dec.Close(); err != nil {
//	    return err
//	}
//	for _, record := range dec.Drain() {
//	    handle(record)
//	}
type Decoder struct {
	sink   *runeSink
	w      io.Writer
	closer io.Closer
	closed bool
}

// NewDecoder returns a Decoder with DefaultReaderOptions.
func NewDecoder() *Decoder {
	d, _ := NewDecoderWithOptions(DefaultReaderOptions())
	return d
}

// NewDecoderWithOptions returns a Decoder with custom options. ChunkSize is
// ignored; the caller decides how much to write at a time.
func NewDecoderWithOptions(opts ReaderOptions) (*Decoder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	class, err := rfc4180.NewClassifier(opts.comma())
	if err != nil {
		return nil, err
	}

	sink := &runeSink{engine: rfc4180.NewEngine(class)}
	d := &Decoder{sink: sink, w: sink}
	if t := opts.transformer(); t != nil {
		tw := transform.NewWriter(sink, t)
		d.w, d.closer = tw, tw
	}
	return d, nil
}

// Write feeds p to the parser. Once a grammar violation has been found,
// every later call returns the same *ParseError.
func (d *Decoder) Write(p []byte) (int, error) {
	if d.closed {
		return 0, ErrClosed
	}
	if d.sink.err != nil {
		return 0, d.sink.err
	}
	return d.w.Write(p)
}

// Close marks the end of input. It returns an error if the document is
// incomplete or a violation was found earlier. Close is idempotent.
func (d *Decoder) Close() error {
	if d.closed {
		return d.sink.err
	}
	d.closed = true

	if d.closer != nil {
		if err := d.closer.Close(); err != nil {
			if d.sink.err == nil {
				d.sink.err = err
			}
			return d.sink.err
		}
	}
	return d.sink.finish()
}

// Records returns the completed records not yet taken by Drain.
func (d *Decoder) Records() [][]string {
	return d.sink.engine.Records()
}

// Drain returns the completed records and forgets them, so memory does not
// grow with the length of the input.
func (d *Decoder) Drain() [][]string {
	return d.sink.engine.Drain()
}

// IsComplete reports whether Close succeeded on a well-formed document.
func (d *Decoder) IsComplete() bool {
	return d.closed && d.sink.engine.IsComplete()
}

// runeSink decodes UTF-8 into the engine, holding back a sequence split
// across writes until its remaining bytes arrive.
type runeSink struct {
	engine  *rfc4180.Engine
	pending [utf8.UTFMax]byte
	n       int
	err     error
}

func (s *runeSink) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	total := len(p)

	if s.n > 0 {
		var head [2 * utf8.UTFMax]byte
		k := copy(head[:], s.pending[:s.n])
		k += copy(head[k:], p[:min(len(p), utf8.UTFMax)])

		off := 0
		for off < s.n {
			if !utf8.FullRune(head[off:k]) {
				// p was too short to complete the sequence and sits in head
				s.n = copy(s.pending[:], head[off:k])
				return total, nil
			}
			r, size := utf8.DecodeRune(head[off:k])
			if err := s.emit(r); err != nil {
				return 0, err
			}
			off += size
		}
		p = p[off-s.n:]
		s.n = 0
	}

	for len(p) > 0 {
		if !utf8.FullRune(p) {
			s.n = copy(s.pending[:], p)
			return total, nil
		}
		r, size := utf8.DecodeRune(p)
		if err := s.emit(r); err != nil {
			return total - len(p), err
		}
		p = p[size:]
	}
	return total, nil
}

func (s *runeSink) emit(r rune) error {
	if err := s.engine.ProcessRune(r); err != nil {
		s.err = wrapError(err)
		return s.err
	}
	return nil
}

// finish flushes a truncated trailing sequence as replacement characters
// and ends the input.
func (s *runeSink) finish() error {
	if s.err != nil {
		return s.err
	}
	for i := 0; i < s.n; i++ {
		if err := s.emit(utf8.RuneError); err != nil {
			return err
		}
	}
	s.n = 0

	if err := s.engine.Finish(); err != nil {
		s.err = wrapError(err)
	}
	return s.err
}
