// Package tokenizer turns shape-core character streams into rune chunks for
// the RFC 4180 engine.
//
// The engine classifies characters itself, so no token matching happens
// here: a Chunker only pulls characters from a tokenizer.Stream and hands
// them out in slices of bounded size. Chunk boundaries carry no meaning;
// the engine keeps its state across them.
package tokenizer

import (
	"io"

	"github.com/shapestone/shape/pkg/tokenizer"
)

// DefaultChunkSize is the number of characters per chunk when the caller
// does not choose one.
const DefaultChunkSize = 4096

// Chunker reads characters from a stream in fixed-size chunks.
type Chunker struct {
	stream tokenizer.Stream
	src    *errReader // nil for in-memory streams
	buf    []rune
	done   bool
}

// NewChunker creates a chunker over an in-memory string.
func NewChunker(input string, size int) *Chunker {
	return NewChunkerFromStream(tokenizer.NewStream(input), size)
}

// NewChunkerFromReader creates a chunker over an io.Reader of UTF-8 text.
// Invalid bytes read as U+FFFD, whatever the size of each read. Read errors
// other than io.EOF are reported by Next once the buffered characters are
// used up.
func NewChunkerFromReader(r io.Reader, size int) *Chunker {
	src := &errReader{r: r}
	c := NewChunkerFromStream(tokenizer.NewStreamFromReader(newUTF8Source(src)), size)
	c.src = src
	return c
}

// NewChunkerFromStream creates a chunker over a pre-configured stream.
// A size <= 0 selects DefaultChunkSize.
func NewChunkerFromStream(stream tokenizer.Stream, size int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Chunker{
		stream: stream,
		buf:    make([]rune, 0, size),
	}
}

// Next returns the next chunk of characters. At the end of the input it
// returns io.EOF, or the read error that ended the input early. The
// returned slice is only valid until the next call.
func (c *Chunker) Next() ([]rune, error) {
	if c.done {
		return nil, c.endErr()
	}

	c.buf = c.buf[:0]
	for len(c.buf) < cap(c.buf) {
		r, ok := c.stream.NextChar()
		if !ok {
			c.done = true
			break
		}
		c.buf = append(c.buf, r)
	}

	if len(c.buf) > 0 {
		return c.buf, nil
	}
	return nil, c.endErr()
}

func (c *Chunker) endErr() error {
	if c.src != nil && c.src.err != nil {
		return c.src.err
	}
	return io.EOF
}

// errReader remembers the first real read error. Streams treat any read
// failure as end of input, which would otherwise hide truncated sources.
type errReader struct {
	r   io.Reader
	err error
}

func (e *errReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err != nil && err != io.EOF && e.err == nil {
		e.err = err
	}
	return n, err
}
