package csv

import (
	"context"
	"io"

	"github.com/shapestone/shape-rfc4180/internal/parser"
)

// Scanner provides a streaming interface for reading CSV records one at a time.
// The input is read in chunks and records are handed out as soon as they are
// complete, so memory use is bounded by the chunk size and the longest
// record rather than by the size of the input.
//
// Example usage:
//
//	file, _ := os.Open("data.csv")
//	defer file.Close()
//
//	scanner := csv.NewScanner(file)
//	for scanner.Scan() {
//	    record := scanner.Record()
//	    fmt.Println(record[0])
//	}
//	if err := scanner.Err(); err != nil {
//	    // handle error
//	}
type Scanner struct {
	reader  io.Reader
	opts    ReaderOptions
	ctx     context.Context
	parser  *parser.Parser
	batch   [][]string
	index   int
	record  []string
	count   int
	err     error
	started bool
	done    bool
}

// NewScanner creates a new Scanner that reads CSV from the given io.Reader
// with DefaultReaderOptions.
//
// Example:
//
//	scanner := csv.NewScanner(reader)
func NewScanner(reader io.Reader) *Scanner {
	return &Scanner{
		reader: reader,
		opts:   DefaultReaderOptions(),
		ctx:    context.Background(),
	}
}

// SetOptions replaces the reader options. It has no effect once Scan has
// been called. Returns the Scanner for method chaining.
//
// Example:
//
//	opts := csv.DefaultReaderOptions()
//	opts.Comma = ';'
//	scanner := csv.NewScanner(reader).SetOptions(opts)
func (s *Scanner) SetOptions(opts ReaderOptions) *Scanner {
	if !s.started {
		s.opts = opts
	}
	return s
}

// SetContext makes the scanner check ctx between chunks. Once ctx is done,
// Scan returns false and Err returns ctx.Err(). Returns the Scanner for
// method chaining.
func (s *Scanner) SetContext(ctx context.Context) *Scanner {
	if ctx != nil {
		s.ctx = ctx
	}
	return s
}

// Scan advances the scanner to the next record.
// It returns false when there are no more records or an error occurs.
// After Scan returns false, the Err method will return any error that occurred.
//
// Records preceding a grammar violation are still delivered; the violation
// is reported once they have been scanned.
func (s *Scanner) Scan() bool {
	if !s.started {
		s.started = true
		p, err := newReaderParser(s.reader, s.opts)
		if err != nil {
			s.err = err
			s.done = true
			return false
		}
		s.parser = p.WithContext(s.ctx)
	}

	for s.index >= len(s.batch) {
		if s.done {
			s.record = nil
			return false
		}
		batch, err := s.parser.Next()
		if err != nil {
			if err != io.EOF {
				s.err = wrapError(err)
			}
			s.done = true
			continue
		}
		s.batch, s.index = batch, 0
	}

	s.record = s.batch[s.index]
	s.batch[s.index] = nil
	s.index++
	s.count++
	return true
}

// Record returns the current record.
// This should only be called after Scan() returns true. The slice is owned
// by the caller and stays valid after later calls to Scan.
func (s *Scanner) Record() []string {
	return s.record
}

// Count returns the number of records scanned so far.
func (s *Scanner) Count() int {
	return s.count
}

// Err returns the error, if any, that was encountered during scanning.
// It returns nil if no error occurred or at EOF.
func (s *Scanner) Err() error {
	return s.err
}
