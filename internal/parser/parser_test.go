package parser

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/shapestone/shape/pkg/ast"
	shapetokenizer "github.com/shapestone/shape/pkg/tokenizer"
	"github.com/shapestone/shape-rfc4180/internal/rfc4180"
)

// recordsOf flattens a parsed AST back into records.
func recordsOf(t *testing.T, node ast.SchemaNode) [][]string {
	t.Helper()

	arr, ok := node.(*ast.ArrayDataNode)
	if !ok {
		t.Fatalf("expected *ast.ArrayDataNode, got %T", node)
	}

	records := make([][]string, 0, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		recordArr, ok := arr.Get(i).(*ast.ArrayDataNode)
		if !ok {
			t.Fatalf("record %d: expected *ast.ArrayDataNode, got %T", i, arr.Get(i))
		}
		fields := make([]string, 0, recordArr.Len())
		for j := 0; j < recordArr.Len(); j++ {
			lit, ok := recordArr.Get(j).(*ast.LiteralNode)
			if !ok {
				t.Fatalf("record %d field %d: expected *ast.LiteralNode, got %T", i, j, recordArr.Get(j))
			}
			str, ok := lit.Value().(string)
			if !ok {
				t.Fatalf("record %d field %d: expected string value, got %T", i, j, lit.Value())
			}
			fields = append(fields, str)
		}
		records = append(records, fields)
	}
	return records
}

// TestParse_EmptyInput tests that empty input yields zero records, not one empty record.
func TestParse_EmptyInput(t *testing.T) {
	node, err := NewParser("").Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := recordsOf(t, node); len(got) != 0 {
		t.Errorf("expected no records, got %q", got)
	}
}

// TestParse_Records tests the AST produced for well-formed documents.
func TestParse_Records(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{
			name:  "three fields",
			input: "a,b,c",
			want:  [][]string{{"a", "b", "c"}},
		},
		{
			name:  "trailing terminator",
			input: "a,b\r\n",
			want:  [][]string{{"a", "b"}},
		},
		{
			name:  "header row is just a record",
			input: "name,age\r\nAlice,30\r\nBob,25",
			want:  [][]string{{"name", "age"}, {"Alice", "30"}, {"Bob", "25"}},
		},
		{
			name:  "quoted field with comma",
			input: `"a,b",c`,
			want:  [][]string{{"a,b", "c"}},
		},
		{
			name:  "escaped quote",
			input: `"say ""hello"""`,
			want:  [][]string{{`say "hello"`}},
		},
		{
			name:  "embedded CRLF",
			input: "a,\"x\r\ny\",b",
			want:  [][]string{{"a", "x\r\ny", "b"}},
		},
		{
			name:  "empty quoted field",
			input: `"",value`,
			want:  [][]string{{"", "value"}},
		},
		{
			name:  "quoted field with spaces",
			input: `" hello world ",test`,
			want:  [][]string{{" hello world ", "test"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := NewParser(tt.input).Parse()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := recordsOf(t, node); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("records = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestParse_RecordPositions tests the record start positions used for AST nodes.
func TestParse_RecordPositions(t *testing.T) {
	p := NewParser("a,b\r\n\"c\r\nd\"\r\ne")
	if _, err := p.Parse(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []rfc4180.Position{
		{Offset: 0, Line: 1, Column: 1},
		{Offset: 5, Line: 2, Column: 1},
		{Offset: 13, Line: 4, Column: 1},
	}
	if got := p.Engine().Positions(); !reflect.DeepEqual(got, want) {
		t.Errorf("positions = %v, want %v", got, want)
	}
}

// TestParse_Errors tests that grammar violations surface as engine errors.
func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  error
	}{
		{"unclosed quote", `"unterminated`, rfc4180.ErrUnterminatedQuote},
		{"unclosed quote with comma", `"unterminated,field`, rfc4180.ErrUnterminatedQuote},
		{"quote in middle of unquoted field", `bad"quote`, rfc4180.ErrUnexpectedQuote},
		{"bare LF", "a\nb", rfc4180.ErrMalformedTerminator},
		{"lone CR", "a\r", rfc4180.ErrMalformedTerminator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(tt.input).Parse()
			if !errors.Is(err, tt.kind) {
				t.Errorf("error = %v, want %v", err, tt.kind)
			}
		})
	}
}

// TestParseRecords_ChunkSizes tests that the chunk size never changes the result.
func TestParseRecords_ChunkSizes(t *testing.T) {
	input := "id,note\r\n1,\"multi\r\nline, with \"\"quotes\"\"\"\r\n2,plain\r\n"
	want := [][]string{{"id", "note"}, {"1", "multi\r\nline, with \"quotes\""}, {"2", "plain"}}

	for _, size := range []int{1, 2, 3, 5, 8, 64, 0} {
		opts := DefaultOptions()
		opts.ChunkSize = size
		got, err := NewParserWithOptions(input, opts).ParseRecords()
		if err != nil {
			t.Fatalf("chunk size %d: unexpected error: %v", size, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("chunk size %d: records = %q, want %q", size, got, want)
		}
	}
}

// TestParseRecords_Options tests separator configuration.
func TestParseRecords_Options(t *testing.T) {
	opts := DefaultOptions()
	opts.Comma = ';'
	got, err := NewParserWithOptions("a;b,c\r\n\"d;e\";f", opts).ParseRecords()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]string{{"a", "b,c"}, {"d;e", "f"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("records = %q, want %q", got, want)
	}

	opts.Comma = '"'
	if _, err := NewParserWithOptions("a", opts).ParseRecords(); !errors.Is(err, rfc4180.ErrInvalidSeparator) {
		t.Errorf("error = %v, want ErrInvalidSeparator", err)
	}
}

// TestNext_Streaming tests batch-by-batch delivery.
func TestNext_Streaming(t *testing.T) {
	opts := DefaultOptions()
	opts.ChunkSize = 4
	p := NewParserFromReader(strings.NewReader("a,b\r\nc,d\r\ne,f"), opts)

	var got [][]string
	for {
		batch, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(batch) == 0 {
			t.Fatal("Next returned an empty batch")
		}
		got = append(got, batch...)
	}

	want := [][]string{{"a", "b"}, {"c", "d"}, {"e", "f"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("records = %q, want %q", got, want)
	}
	if _, err := p.Next(); err != io.EOF {
		t.Errorf("Next after end = %v, want io.EOF", err)
	}
}

// TestNext_ErrorAfterRecords tests that records before a violation are delivered first.
func TestNext_ErrorAfterRecords(t *testing.T) {
	opts := DefaultOptions()
	opts.ChunkSize = 1
	p := NewParserWithOptions("ok\r\nbad\"", opts)

	batch, err := p.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(batch, [][]string{{"ok"}}) {
		t.Errorf("first batch = %q", batch)
	}

	if _, err := p.Next(); !errors.Is(err, rfc4180.ErrUnexpectedQuote) {
		t.Errorf("error = %v, want ErrUnexpectedQuote", err)
	}
}

// TestWithContext tests that a cancelled context stops the parser.
func TestWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser("a,b").WithContext(ctx).ParseRecords()
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// TestNewParserFromStream tests parsing from a caller-provided stream.
func TestNewParserFromStream(t *testing.T) {
	stream := &testStream{data: "a,b,c\r\nd,e,f", pos: 0, row: 1, column: 1}
	got, err := NewParserFromStream(stream).ParseRecords()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]string{{"a", "b", "c"}, {"d", "e", "f"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("records = %q, want %q", got, want)
	}
}

// testStream is a simple implementation of shapetokenizer.Stream for testing
type testStream struct {
	data   string
	pos    int
	row    int
	column int
}

func (s *testStream) Clone() shapetokenizer.Stream {
	return &testStream{
		data:   s.data,
		pos:    s.pos,
		row:    s.row,
		column: s.column,
	}
}

func (s *testStream) Match(other shapetokenizer.Stream) {
	if otherStream, ok := other.(*testStream); ok {
		s.pos = otherStream.pos
		s.row = otherStream.row
		s.column = otherStream.column
	}
}

func (s *testStream) PeekChar() (rune, bool) {
	if s.pos >= len(s.data) {
		return 0, false
	}
	return rune(s.data[s.pos]), true
}

func (s *testStream) NextChar() (rune, bool) {
	if s.pos >= len(s.data) {
		return 0, false
	}
	r := rune(s.data[s.pos])
	s.pos++
	s.column++
	if r == '\n' {
		s.row++
		s.column = 1
	}
	return r, true
}

func (s *testStream) MatchChars(chars []rune) bool {
	origPos := s.pos
	for _, ch := range chars {
		if r, ok := s.NextChar(); !ok || r != ch {
			s.pos = origPos
			return false
		}
	}
	return true
}

func (s *testStream) IsEos() bool {
	return s.pos >= len(s.data)
}

func (s *testStream) GetRow() int {
	return s.row
}

func (s *testStream) GetOffset() int {
	return s.pos
}

func (s *testStream) GetColumn() int {
	return s.column
}

func (s *testStream) Reset() {
	s.pos = 0
	s.row = 1
	s.column = 1
}

func (s *testStream) GetLocation() shapetokenizer.Location {
	return shapetokenizer.Location{
		Cursor: s.pos,
		Row:    s.row,
		Column: s.column,
	}
}

func (s *testStream) SetLocation(loc shapetokenizer.Location) {
	s.pos = loc.Cursor
	s.row = loc.Row
	s.column = loc.Column
}
