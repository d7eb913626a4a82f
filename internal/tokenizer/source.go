package tokenizer

import (
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// newUTF8Source wraps r so that every Read returns whole, valid UTF-8.
//
// Streams decode each Read on its own, so a character split across two
// reads, or an invalid byte, would otherwise be lost. Invalid bytes become
// U+FFFD, one per byte, the same as decoding the whole input at once.
func newUTF8Source(r io.Reader) io.Reader {
	return &runeAligned{r: transform.NewReader(r, unicode.UTF8.NewDecoder())}
}

// runeAligned holds back a character cut off at the end of a read until the
// rest of it arrives. Its source must yield valid UTF-8.
type runeAligned struct {
	r    io.Reader
	held [utf8.UTFMax]byte
	nh   int
	err  error // returned once the data read with it is consumed
}

func (a *runeAligned) Read(p []byte) (int, error) {
	if a.err != nil {
		return 0, a.err
	}
	if len(p) < utf8.UTFMax {
		return 0, io.ErrShortBuffer
	}

	for {
		n := copy(p, a.held[:a.nh])
		a.nh = 0

		m, err := a.r.Read(p[n:])
		n += m
		if err != nil {
			a.err = err
			if n > 0 {
				return n, nil
			}
			return 0, err
		}

		cut := completePrefix(p[:n])
		a.nh = copy(a.held[:], p[cut:n])
		if cut > 0 {
			return cut, nil
		}
	}
}

// completePrefix returns the length of b without a trailing incomplete
// character.
func completePrefix(b []byte) int {
	for i := len(b) - 1; i >= 0 && i > len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return i
			}
			break
		}
	}
	return len(b)
}
