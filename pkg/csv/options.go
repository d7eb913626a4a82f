// Package csv provides configurable options for CSV parsing and writing.
package csv

import (
	"io"

	"github.com/shapestone/shape/pkg/ast"
	"github.com/shapestone/shape-rfc4180/internal/parser"
	"github.com/shapestone/shape-rfc4180/internal/rfc4180"
	"github.com/shapestone/shape-rfc4180/internal/tokenizer"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReaderOptions configures CSV parsing behavior.
type ReaderOptions struct {
	// Comma is the field separator.
	// It must be a valid rune and not ", \r, \n, NUL, or the Unicode
	// replacement character (0xFFFD). A zero value selects ','.
	// Default: ','
	Comma rune

	// ChunkSize is the number of characters handed to the state machine at a
	// time when reading from an io.Reader. It affects memory use only, never
	// the result. 0 selects the default.
	// Default: 4096
	ChunkSize int

	// Encoding decodes the input bytes to characters. nil means UTF-8.
	// Used by the io.Reader entry points, Scanner and Decoder.
	// Default: nil
	Encoding encoding.Encoding

	// SkipBOM strips a leading byte order mark. A UTF-16 BOM also switches
	// decoding to UTF-16 of that byte order.
	// Default: true
	SkipBOM bool
}

// DefaultReaderOptions returns the default reader configuration.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		Comma:     ',',
		ChunkSize: tokenizer.DefaultChunkSize,
		Encoding:  nil,
		SkipBOM:   true,
	}
}

// WriterOptions configures CSV writing behavior.
// Records are always terminated with CRLF, the only terminator the parser
// accepts.
type WriterOptions struct {
	// Comma is the field separator.
	// Default: ','
	Comma rune

	// AlwaysQuote quotes every field, not only those that need it.
	// Default: false
	AlwaysQuote bool
}

// DefaultWriterOptions returns the default writer configuration.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{
		Comma:       ',',
		AlwaysQuote: false,
	}
}

// ParseWithOptions parses CSV from a string with custom options. Encoding
// and ChunkSize do not apply to strings; SkipBOM does.
//
// Example:
//
//	opts := csv.DefaultReaderOptions()
//	opts.Comma = '\t'  // Tab-separated
//	records, err := csv.ParseWithOptions("name\tage\r\nAlice\t30", opts)
func ParseWithOptions(input string, opts ReaderOptions) ([][]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	class, err := rfc4180.NewClassifier(opts.comma())
	if err != nil {
		return nil, err
	}
	if opts.SkipBOM {
		input = trimBOM(input)
	}
	records, err := rfc4180.ParseString(input, class)
	return records, wrapError(err)
}

// ParseReaderWithOptions parses CSV from an io.Reader with custom options.
//
// Example:
//
//	opts := csv.DefaultReaderOptions()
//	opts.Encoding = japanese.ShiftJIS
//	records, err := csv.ParseReaderWithOptions(file, opts)
func ParseReaderWithOptions(reader io.Reader, opts ReaderOptions) ([][]string, error) {
	p, err := newReaderParser(reader, opts)
	if err != nil {
		return nil, err
	}
	records, err := p.ParseRecords()
	return records, wrapError(err)
}

// ParseASTWithOptions parses CSV from an io.Reader into Shape's AST with
// custom options.
func ParseASTWithOptions(reader io.Reader, opts ReaderOptions) (ast.SchemaNode, error) {
	p, err := newReaderParser(reader, opts)
	if err != nil {
		return nil, err
	}
	node, err := p.Parse()
	return node, wrapError(err)
}

// ValidateWithOptions checks if the input string is valid CSV with custom options.
//
// Example:
//
//	opts := csv.DefaultReaderOptions()
//	opts.Comma = ';'  // Semicolon-separated
//	err := csv.ValidateWithOptions("a;b;c", opts)
func ValidateWithOptions(input string, opts ReaderOptions) error {
	_, err := ParseWithOptions(input, opts)
	return err
}

// RenderWithOptions converts records to CSV bytes with custom options.
//
// Example:
//
//	opts := csv.DefaultWriterOptions()
//	opts.Comma = '\t'
//	out, err := csv.RenderWithOptions(records, opts)
func RenderWithOptions(records [][]string, opts WriterOptions) ([]byte, error) {
	return renderWithOptions(records, opts)
}

// newReaderParser validates opts and builds a parser reading decoded
// characters from reader.
func newReaderParser(reader io.Reader, opts ReaderOptions) (*parser.Parser, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return parser.NewParserFromReader(opts.decode(reader), parser.Options{
		Comma:     opts.comma(),
		ChunkSize: opts.ChunkSize,
	}), nil
}

// decode wraps r so that it yields UTF-8 according to Encoding and SkipBOM.
func (o ReaderOptions) decode(r io.Reader) io.Reader {
	if t := o.transformer(); t != nil {
		return transform.NewReader(r, t)
	}
	return r
}

// transformer returns the byte transformation selected by Encoding and
// SkipBOM, or nil when the bytes are used as they are.
func (o ReaderOptions) transformer() transform.Transformer {
	var t transform.Transformer
	if o.Encoding != nil {
		t = o.Encoding.NewDecoder()
	}

	switch {
	case o.SkipBOM && t != nil:
		return unicode.BOMOverride(t)
	case o.SkipBOM:
		return unicode.BOMOverride(transform.Nop)
	}
	return t
}

func (o ReaderOptions) comma() rune {
	if o.Comma == 0 {
		return ','
	}
	return o.Comma
}

// validDelim reports whether r is a valid field delimiter.
func validDelim(r rune) bool {
	return rfc4180.ValidSeparator(r)
}

// Validate checks if the options are valid.
// Returns an error if the options are invalid.
func (o ReaderOptions) Validate() error {
	if !validDelim(o.comma()) {
		return &OptionsError{Field: "Comma", Message: "invalid delimiter", Err: ErrInvalidSeparator}
	}
	if o.ChunkSize < 0 {
		return &OptionsError{Field: "ChunkSize", Message: "must not be negative"}
	}
	return nil
}

// Validate checks if the writer options are valid.
func (o WriterOptions) Validate() error {
	if !validDelim(o.Comma) {
		return &OptionsError{Field: "Comma", Message: "invalid delimiter", Err: ErrInvalidSeparator}
	}
	return nil
}

// OptionsError represents an invalid option configuration.
type OptionsError struct {
	Field   string
	Message string
	Err     error
}

func (e *OptionsError) Error() string {
	return "csv: invalid " + e.Field + ": " + e.Message
}

// Unwrap returns the underlying error, if any.
func (e *OptionsError) Unwrap() error {
	return e.Err
}
