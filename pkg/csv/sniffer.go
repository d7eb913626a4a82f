// Package csv provides separator detection.
package csv

import (
	"strings"

	"github.com/shapestone/shape-rfc4180/internal/rfc4180"
)

// sniffCandidates are the separators tried by a Sniffer, in order of
// preference when scores tie.
var sniffCandidates = []rune{',', '\t', ';', '|'}

// Sniffer detects the field separator of a CSV sample.
//
// Each candidate separator is run through the state machine over the
// complete records of the sample. A candidate scores when the sample parses
// without error into more than one field per record; records of equal width
// score higher. The default ',' is returned when no candidate scores.
type Sniffer struct {
	sample    string
	delimiter rune
	analyzed  bool
}

// NewSniffer creates a new Sniffer with a sample of CSV data.
// For best results, provide at least 2-3 records.
func NewSniffer(sample string) *Sniffer {
	return &Sniffer{sample: sample}
}

// DetectDelimiter returns the detected field delimiter.
// Common delimiters checked: comma, tab, semicolon, pipe.
func (s *Sniffer) DetectDelimiter() rune {
	if !s.analyzed {
		s.delimiter = s.detectDelimiter()
		s.analyzed = true
	}
	return s.delimiter
}

func (s *Sniffer) detectDelimiter() rune {
	sample := completeRecords(s.sample)
	if sample == "" {
		return ','
	}

	best, bestScore := ',', 0
	for _, delim := range sniffCandidates {
		if score := scoreDelimiter(sample, delim); score > bestScore {
			best, bestScore = delim, score
		}
	}
	return best
}

// scoreDelimiter parses sample with delim. Invalid samples score 0.
func scoreDelimiter(sample string, delim rune) int {
	class, err := rfc4180.NewClassifier(delim)
	if err != nil {
		return 0
	}
	records, err := rfc4180.ParseString(sample, class)
	if err != nil || len(records) == 0 {
		return 0
	}

	width := len(records[0])
	if width < 2 {
		return 0
	}
	for _, record := range records[1:] {
		if len(record) != width {
			return width
		}
	}
	// Bonus for consistency
	return width * 10
}

// completeRecords cuts a sample taken from the middle of a stream back to
// its last CRLF, so a truncated final record does not count against a
// candidate. A sample without CRLF is used as it is.
func completeRecords(sample string) string {
	if i := strings.LastIndex(sample, "\r\n"); i >= 0 {
		return sample[:i+2]
	}
	return sample
}

// SniffSeparator is shorthand for NewSniffer(sample).DetectDelimiter().
func SniffSeparator(sample string) rune {
	return NewSniffer(sample).DetectDelimiter()
}
