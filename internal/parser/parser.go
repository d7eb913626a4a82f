// Package parser drives the RFC 4180 state machine over a character stream.
//
// A Parser pulls chunks from a shape-core tokenizer.Stream, feeds them to an
// rfc4180.Engine and either collects every record (ParseRecords), builds
// Shape's AST (Parse), or hands records out batch by batch as they complete
// (Next).
package parser

import (
	"context"
	"io"

	"github.com/shapestone/shape/pkg/ast"
	shapetokenizer "github.com/shapestone/shape/pkg/tokenizer"
	"github.com/shapestone/shape-rfc4180/internal/rfc4180"
	"github.com/shapestone/shape-rfc4180/internal/tokenizer"
)

// Options configures the parser behavior.
type Options struct {
	// Comma is the field separator. Default: ','
	Comma rune
	// ChunkSize is the number of characters fed to the engine at a time.
	// 0 selects tokenizer.DefaultChunkSize.
	ChunkSize int
}

// DefaultOptions returns default parser options.
func DefaultOptions() Options {
	return Options{
		Comma:     ',',
		ChunkSize: tokenizer.DefaultChunkSize,
	}
}

// Parser runs one document through the engine.
type Parser struct {
	chunker  *tokenizer.Chunker
	engine   *rfc4180.Engine
	ctx      context.Context
	finished bool
	err      error
}

// NewParser creates a new CSV parser for the given input string.
// For parsing from io.Reader, use NewParserFromReader instead.
func NewParser(input string) *Parser {
	return NewParserWithOptions(input, DefaultOptions())
}

// NewParserWithOptions creates a new CSV parser with custom options.
func NewParserWithOptions(input string, opts Options) *Parser {
	return NewParserFromStreamWithOptions(shapetokenizer.NewStream(input), opts)
}

// NewParserFromStream creates a new CSV parser using a pre-configured stream.
func NewParserFromStream(stream shapetokenizer.Stream) *Parser {
	return NewParserFromStreamWithOptions(stream, DefaultOptions())
}

// NewParserFromStreamWithOptions creates a new CSV parser from a stream with custom options.
func NewParserFromStreamWithOptions(stream shapetokenizer.Stream, opts Options) *Parser {
	return newParser(tokenizer.NewChunkerFromStream(stream, opts.ChunkSize), opts)
}

// NewParserFromReader creates a new CSV parser reading characters from r.
// The bytes must already be UTF-8; decoding other encodings is the caller's job.
func NewParserFromReader(r io.Reader, opts Options) *Parser {
	return newParser(tokenizer.NewChunkerFromReader(r, opts.ChunkSize), opts)
}

func newParser(chunker *tokenizer.Chunker, opts Options) *Parser {
	p := &Parser{
		chunker: chunker,
		ctx:     context.Background(),
	}

	comma := opts.Comma
	if comma == 0 {
		comma = ','
	}
	class, err := rfc4180.NewClassifier(comma)
	if err != nil {
		p.err = err
		return p
	}
	p.engine = rfc4180.NewEngine(class)
	return p
}

// WithContext makes the parser check ctx between chunks. It returns p for
// chaining.
func (p *Parser) WithContext(ctx context.Context) *Parser {
	if ctx != nil {
		p.ctx = ctx
	}
	return p
}

// ParseRecords parses the whole input and returns every record.
func (p *Parser) ParseRecords() ([][]string, error) {
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.engine.Records(), nil
}

// Parse parses the input and returns an AST representing the CSV file.
//
// Returns *ast.ArrayDataNode - an array of records, where each record is an
// ArrayDataNode of fields positioned at the record start. Each field is a
// LiteralNode containing a string value.
func (p *Parser) Parse() (ast.SchemaNode, error) {
	if err := p.run(); err != nil {
		return nil, err
	}
	return BuildAST(p.engine.Records(), p.engine.Positions()), nil
}

// Next returns the records completed since the previous call. It returns
// io.EOF once the input is exhausted and every record was handed out.
func (p *Parser) Next() ([][]string, error) {
	for {
		if p.err != nil {
			return nil, p.err
		}
		if p.finished {
			return nil, io.EOF
		}
		p.step()
		if records := p.engine.Drain(); len(records) > 0 {
			return records, nil
		}
	}
}

// Engine exposes the underlying state machine, e.g. for its position.
func (p *Parser) Engine() *rfc4180.Engine {
	return p.engine
}

func (p *Parser) run() error {
	for p.err == nil && !p.finished {
		p.step()
	}
	return p.err
}

// step feeds one chunk, or finishes the engine at end of input.
func (p *Parser) step() {
	if err := p.ctx.Err(); err != nil {
		p.err = err
		return
	}

	chunk, err := p.chunker.Next()
	switch {
	case err == io.EOF:
		if err := p.engine.Finish(); err != nil {
			p.err = err
			return
		}
		p.finished = true
	case err != nil:
		p.err = err
	default:
		p.err = p.engine.Process(chunk)
	}
}

// BuildAST converts records into Shape's AST. positions, if not nil, must
// hold the start position of each record.
func BuildAST(records [][]string, positions []rfc4180.Position) *ast.ArrayDataNode {
	nodes := make([]ast.SchemaNode, len(records))
	for i, record := range records {
		pos := ast.ZeroPosition()
		if i < len(positions) {
			pos = toASTPosition(positions[i])
		}

		fields := make([]ast.SchemaNode, len(record))
		for j, value := range record {
			fields[j] = ast.NewLiteralNode(value, pos)
		}
		nodes[i] = ast.NewArrayDataNode(fields, pos)
	}
	return ast.NewArrayDataNode(nodes, ast.ZeroPosition())
}

func toASTPosition(p rfc4180.Position) ast.Position {
	return ast.NewPosition(p.Offset, p.Line, p.Column)
}
