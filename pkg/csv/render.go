// Package csv provides RFC 4180 serialisation of records and AST nodes.
package csv

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/shapestone/shape/pkg/ast"
	"github.com/shapestone/shape-rfc4180/internal/rfc4180"
)

// Writer writes records as RFC 4180 CSV.
//
// Every record is terminated with CRLF. A field is quoted when it contains
// the separator, a quote, CR or LF, and quotes inside it are doubled, so
// whatever a Writer produces parses back to the same records. Fields
// holding characters the grammar cannot represent at all (control
// characters other than CR and LF) are rejected.
//
// Writes are buffered; call Flush (or use WriteAll) before inspecting the
// underlying io.Writer.
type Writer struct {
	// Comma is the field separator. Set before the first Write.
	Comma rune
	// AlwaysQuote quotes every field.
	AlwaysQuote bool

	w     *bufio.Writer
	class *rfc4180.Classifier
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		Comma: ',',
		w:     bufio.NewWriter(w),
	}
}

// Write writes a single record. A record with no fields is written as an
// empty line, which reads back as a record with one empty field.
func (w *Writer) Write(record []string) error {
	if err := w.init(); err != nil {
		return err
	}

	for i, field := range record {
		if i > 0 {
			if _, err := w.w.WriteRune(w.Comma); err != nil {
				return err
			}
		}
		if err := w.writeField(field); err != nil {
			return err
		}
	}
	_, err := w.w.WriteString("\r\n")
	return err
}

// WriteAll writes multiple records and flushes.
func (w *Writer) WriteAll(records [][]string) error {
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Flush writes any buffered data to the underlying io.Writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func (w *Writer) init() error {
	if w.class != nil && w.class.Separator() == w.Comma {
		return nil
	}
	class, err := rfc4180.NewClassifier(w.Comma)
	if err != nil {
		return err
	}
	w.class = class
	return nil
}

func (w *Writer) writeField(field string) error {
	quote := w.AlwaysQuote
	for _, r := range field {
		switch w.class.Classify(r) {
		case rfc4180.Unknown:
			return fmt.Errorf("csv: cannot write %q: %w", r, ErrUnexpectedControl)
		case rfc4180.Separator, rfc4180.DoubleQuote, rfc4180.CarriageReturn, rfc4180.LineFeed:
			quote = true
		}
	}

	if !quote {
		_, err := w.w.WriteString(field)
		return err
	}

	w.w.WriteByte('"')
	for _, r := range field {
		if r == '"' {
			w.w.WriteString(`""`)
		} else {
			w.w.WriteRune(r)
		}
	}
	return w.w.WriteByte('"')
}

// Render converts records to CSV bytes.
//
// Example:
//
//	out, _ := csv.Render([][]string{{"name", "note"}, {"Alice", "says \"hi\""}})
//	// out: name,note\r\nAlice,"says ""hi"""\r\n
func Render(records [][]string) ([]byte, error) {
	return renderWithOptions(records, DefaultWriterOptions())
}

// RenderAST converts an AST node to CSV bytes.
//
// The node should be the result of ParseAST() or ParseReaderAST(): an
// *ast.ArrayDataNode of records, each an *ast.ArrayDataNode of
// *ast.LiteralNode fields.
func RenderAST(node ast.SchemaNode) ([]byte, error) {
	if node == nil {
		return []byte{}, nil
	}
	records, err := NodeToRecords(node)
	if err != nil {
		return nil, err
	}
	return Render(records)
}

// renderWithOptions converts records to CSV bytes with custom options.
func renderWithOptions(records [][]string, opts WriterOptions) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Comma = opts.Comma
	w.AlwaysQuote = opts.AlwaysQuote
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
