// Package csv provides a strict RFC 4180 CSV parser.
//
// Parsing is driven by a deterministic state machine that accepts exactly
// the RFC 4180 grammar: records end in CRLF, fields may be quoted, quoted
// fields may hold separators, CRLF and doubled quotes. Anything else, such
// as a bare LF, a lone CR or a quote inside an unquoted field, is rejected
// with a *ParseError carrying the line and column of the offending
// character.
//
// Input may arrive in pieces of any size; the result never depends on where
// the input was split.
//
// # Thread Safety
//
// All functions in this package are safe for concurrent use by multiple goroutines.
// Each function call creates its own state machine with no shared mutable state.
// A Decoder or Scanner must not be used from more than one goroutine at a time.
//
//	// Safe: Concurrent parsing
//	go func() { csv.Parse(input1) }()
//	go func() { csv.Parse(input2) }()
//
// # Parsing APIs
//
//   - Parse(string) and ParseBytes([]byte) parse a document held in memory
//   - ParseReader(io.Reader) parses from any io.Reader in bounded chunks
//   - ParseAST(string) and ParseReaderAST(io.Reader) build Shape's AST
//   - NewScanner(io.Reader) hands out one record at a time
//   - NewDecoder() accepts bytes pushed by the caller through Write
//
// # Example usage with Parse:
//
//	records, err := csv.Parse("name,age\r\nAlice,30\r\nBob,25")
//	if err != nil {
//	    // handle error
//	}
//	// records[0] is ["name", "age"]; the header row is just a record
//
// # Example usage with ParseReader:
//
//	file, err := os.Open("data.csv")
//	if err != nil {
//	    // handle error
//	}
//	defer file.Close()
//
//	records, err := csv.ParseReader(file)
//	var perr *csv.ParseError
//	if errors.As(err, &perr) {
//	    fmt.Printf("bad CSV at %d:%d\n", perr.Line, perr.Column)
//	}
package csv

import (
	"bytes"
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shapestone/shape/pkg/ast"
	"github.com/shapestone/shape-rfc4180/internal/parser"
	"github.com/shapestone/shape-rfc4180/internal/rfc4180"
)

// Parse parses a CSV document held in a string.
//
// An empty input yields zero records. A trailing CRLF after the last record
// is accepted and does not add a record. A leading byte order mark is
// skipped, as in ParseReader.
//
// Example:
//
//	records, err := csv.Parse("a,\"b,c\"\r\n\"say \"\"hi\"\"\",d")
//	// records: [["a" "b,c"] ["say \"hi\"" "d"]]
func Parse(input string) ([][]string, error) {
	records, err := rfc4180.ParseString(trimBOM(input), nil)
	return records, wrapError(err)
}

// ParseBytes parses a CSV document held in a byte slice. The bytes must be
// UTF-8; use ParseReaderWithOptions for other encodings. A leading byte
// order mark is skipped.
func ParseBytes(data []byte) ([][]string, error) {
	e := rfc4180.Acquire(nil)
	defer rfc4180.Release(e)

	data = bytes.TrimPrefix(data, utf8BOM)

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if err := e.ProcessRune(r); err != nil {
			return nil, wrapError(err)
		}
		data = data[size:]
	}
	if err := e.Finish(); err != nil {
		return nil, wrapError(err)
	}
	return e.Records(), nil
}

// ParseReader parses CSV from an io.Reader.
//
// The reader is consumed in chunks of DefaultReaderOptions().ChunkSize
// characters. A leading byte order mark is skipped. Read errors are returned
// as they are; grammar violations are returned as *ParseError.
//
// Example parsing from a file:
//
//	file, err := os.Open("data.csv")
//	if err != nil {
//	    // handle error
//	}
//	defer file.Close()
//
//	records, err := csv.ParseReader(file)
func ParseReader(reader io.Reader) ([][]string, error) {
	return ParseReaderWithOptions(reader, DefaultReaderOptions())
}

// ParseReaderContext is ParseReader with cancellation. ctx is checked
// between chunks; once it is done, ctx.Err() is returned.
func ParseReaderContext(ctx context.Context, reader io.Reader) ([][]string, error) {
	p, err := newReaderParser(reader, DefaultReaderOptions())
	if err != nil {
		return nil, err
	}
	records, err := p.WithContext(ctx).ParseRecords()
	return records, wrapError(err)
}

// ParseAST parses CSV format into an AST from a string.
//
// Returns an ast.ArrayDataNode representing the parsed CSV:
//   - *ast.ArrayDataNode for the file (array of records)
//   - Each record is an *ast.ArrayDataNode of fields
//   - Each field is an *ast.LiteralNode containing a string value
//
// Record and field nodes carry the position where their record starts.
//
// Example:
//
//	node, err := csv.ParseAST("name,age\r\nAlice,30")
//	arrayNode := node.(*ast.ArrayDataNode)
//	records := arrayNode.Elements()
func ParseAST(input string) (ast.SchemaNode, error) {
	node, err := parser.NewParser(trimBOM(input)).Parse()
	return node, wrapError(err)
}

// ParseReaderAST parses CSV format into an AST from an io.Reader.
func ParseReaderAST(reader io.Reader) (ast.SchemaNode, error) {
	return ParseASTWithOptions(reader, DefaultReaderOptions())
}

// Format returns the format identifier for this parser.
// Returns "CSV" to identify this as the CSV data format parser.
func Format() string {
	return "CSV"
}

// Validate checks if the input string is valid RFC 4180 CSV.
//
// Returns nil if the input is valid CSV.
// Returns a *ParseError describing the first violation otherwise.
//
//	if err := csv.Validate(input); err != nil {
//	    // Invalid CSV
//	    fmt.Println("Invalid CSV:", err)
//	}
//	// Valid CSV - err is nil
//
// A leading byte order mark is skipped. Valid CSV includes:
//   - Simple fields: name,age
//   - Quoted fields: "name","age"
//   - Empty fields: a,,c
//   - Escaped quotes: "field with ""quotes"""
//   - Line breaks in quoted fields: "field\r\nwith\r\nbreaks"
func Validate(input string) error {
	e := rfc4180.Acquire(nil)
	defer rfc4180.Release(e)

	// Records are dropped as they complete, so memory stays bounded by the
	// longest record.
	for _, r := range trimBOM(input) {
		if err := e.ProcessRune(r); err != nil {
			return wrapError(err)
		}
		e.Drain()
	}
	return wrapError(e.Finish())
}

// ValidateReader checks if the input from an io.Reader is valid CSV.
//
// The reader is consumed in chunks and records are discarded as they
// complete, so arbitrarily large inputs can be validated.
func ValidateReader(reader io.Reader) error {
	p, err := newReaderParser(reader, DefaultReaderOptions())
	if err != nil {
		return err
	}
	for {
		_, err := p.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return wrapError(err)
		}
	}
}

var utf8BOM = []byte("\ufeff")

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
