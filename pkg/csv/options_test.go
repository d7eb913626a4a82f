package csv_test

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shapestone/shape-rfc4180/pkg/csv"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestDefaultReaderOptions(t *testing.T) {
	opts := csv.DefaultReaderOptions()

	if opts.Comma != ',' {
		t.Errorf("DefaultReaderOptions().Comma = %q, want ','", opts.Comma)
	}
	if opts.ChunkSize != 4096 {
		t.Errorf("DefaultReaderOptions().ChunkSize = %d, want 4096", opts.ChunkSize)
	}
	if opts.Encoding != nil {
		t.Errorf("DefaultReaderOptions().Encoding = %v, want nil", opts.Encoding)
	}
	if !opts.SkipBOM {
		t.Error("DefaultReaderOptions().SkipBOM should be true")
	}
}

func TestDefaultWriterOptions(t *testing.T) {
	opts := csv.DefaultWriterOptions()

	if opts.Comma != ',' {
		t.Errorf("DefaultWriterOptions().Comma = %q, want ','", opts.Comma)
	}
	if opts.AlwaysQuote {
		t.Error("DefaultWriterOptions().AlwaysQuote should be false")
	}
}

func TestParseWithOptions_CustomDelimiter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		comma rune
		want  [][]string
	}{
		{
			name:  "tab separated",
			input: "name\tage\r\nAlice\t30",
			comma: '\t',
			want:  [][]string{{"name", "age"}, {"Alice", "30"}},
		},
		{
			name:  "semicolon separated, comma is text",
			input: "a;b,c\r\n1;\"2;3\"",
			comma: ';',
			want:  [][]string{{"a", "b,c"}, {"1", "2;3"}},
		},
		{
			name:  "pipe separated",
			input: "x|y|z",
			comma: '|',
			want:  [][]string{{"x", "y", "z"}},
		},
		{
			name:  "non-ASCII separator",
			input: "a§b\r\n\"c§d\"§e",
			comma: '§',
			want:  [][]string{{"a", "b"}, {"c§d", "e"}},
		},
		{
			name:  "zero selects comma",
			input: "a,b",
			comma: 0,
			want:  [][]string{{"a", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := csv.DefaultReaderOptions()
			opts.Comma = tt.comma

			got, err := csv.ParseWithOptions(tt.input, opts)
			if err != nil {
				t.Fatalf("ParseWithOptions() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseWithOptions() = %q, want %q", got, tt.want)
			}

			got, err = csv.ParseReaderWithOptions(strings.NewReader(tt.input), opts)
			if err != nil {
				t.Fatalf("ParseReaderWithOptions() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseReaderWithOptions() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseReaderWithOptions_Encoding(t *testing.T) {
	t.Run("windows-1252", func(t *testing.T) {
		encoded, err := charmap.Windows1252.NewEncoder().String("café,naïve\r\n\"€5\",x")
		if err != nil {
			t.Fatalf("encode: %v", err)
		}

		opts := csv.DefaultReaderOptions()
		opts.Encoding = charmap.Windows1252
		got, err := csv.ParseReaderWithOptions(strings.NewReader(encoded), opts)
		if err != nil {
			t.Fatalf("ParseReaderWithOptions() error = %v", err)
		}
		want := [][]string{{"café", "naïve"}, {"€5", "x"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ParseReaderWithOptions() = %q, want %q", got, want)
		}
	})

	t.Run("UTF-16 with BOM", func(t *testing.T) {
		enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
		encoded, err := enc.NewEncoder().Bytes([]byte("a,b\r\nc,\"d\r\ne\""))
		if err != nil {
			t.Fatalf("encode: %v", err)
		}

		got, err := csv.ParseReaderWithOptions(bytes.NewReader(encoded), csv.DefaultReaderOptions())
		if err != nil {
			t.Fatalf("ParseReaderWithOptions() error = %v", err)
		}
		want := [][]string{{"a", "b"}, {"c", "d\r\ne"}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ParseReaderWithOptions() = %q, want %q", got, want)
		}
	})
}

func TestParseReaderWithOptions_SkipBOM(t *testing.T) {
	input := "\ufeffa,b"

	got, err := csv.ParseReaderWithOptions(strings.NewReader(input), csv.DefaultReaderOptions())
	if err != nil {
		t.Fatalf("ParseReaderWithOptions() error = %v", err)
	}
	if !reflect.DeepEqual(got, [][]string{{"a", "b"}}) {
		t.Errorf("with SkipBOM = %q", got)
	}
}

func TestRenderWithOptions_CustomDelimiter(t *testing.T) {
	records := [][]string{{"a", "b;c"}, {"1", "2"}}

	opts := csv.DefaultWriterOptions()
	opts.Comma = ';'
	got, err := csv.RenderWithOptions(records, opts)
	if err != nil {
		t.Fatalf("RenderWithOptions() error = %v", err)
	}
	want := "a;\"b;c\"\r\n1;2\r\n"
	if string(got) != want {
		t.Errorf("RenderWithOptions() = %q, want %q", got, want)
	}

	opts.AlwaysQuote = true
	got, err = csv.RenderWithOptions(records, opts)
	if err != nil {
		t.Fatalf("RenderWithOptions() error = %v", err)
	}
	want = "\"a\";\"b;c\"\r\n\"1\";\"2\"\r\n"
	if string(got) != want {
		t.Errorf("RenderWithOptions(AlwaysQuote) = %q, want %q", got, want)
	}
}

func TestOptionsValidation(t *testing.T) {
	t.Run("reader options validation", func(t *testing.T) {
		tests := []struct {
			name    string
			opts    csv.ReaderOptions
			wantErr bool
		}{
			{
				name:    "valid default",
				opts:    csv.DefaultReaderOptions(),
				wantErr: false,
			},
			{
				name:    "zero value",
				opts:    csv.ReaderOptions{},
				wantErr: false,
			},
			{
				name:    "invalid comma - newline",
				opts:    csv.ReaderOptions{Comma: '\n'},
				wantErr: true,
			},
			{
				name:    "invalid comma - carriage return",
				opts:    csv.ReaderOptions{Comma: '\r'},
				wantErr: true,
			},
			{
				name:    "invalid comma - quote",
				opts:    csv.ReaderOptions{Comma: '"'},
				wantErr: true,
			},
			{
				name:    "invalid comma - replacement character",
				opts:    csv.ReaderOptions{Comma: '\uFFFD'},
				wantErr: true,
			},
			{
				name:    "negative chunk size",
				opts:    csv.ReaderOptions{ChunkSize: -1},
				wantErr: true,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.opts.Validate()
				if (err != nil) != tt.wantErr {
					t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
			})
		}
	})

	t.Run("writer options validation", func(t *testing.T) {
		tests := []struct {
			name    string
			opts    csv.WriterOptions
			wantErr bool
		}{
			{
				name:    "valid default",
				opts:    csv.DefaultWriterOptions(),
				wantErr: false,
			},
			{
				name:    "invalid comma - newline",
				opts:    csv.WriterOptions{Comma: '\n'},
				wantErr: true,
			},
			{
				name:    "invalid comma - zero",
				opts:    csv.WriterOptions{},
				wantErr: true,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.opts.Validate()
				if (err != nil) != tt.wantErr {
					t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
			})
		}
	})

	t.Run("options error", func(t *testing.T) {
		_, err := csv.ParseWithOptions("a", csv.ReaderOptions{Comma: '"'})

		var oerr *csv.OptionsError
		if !errors.As(err, &oerr) {
			t.Fatalf("error type = %T, want *csv.OptionsError", err)
		}
		if oerr.Field != "Comma" {
			t.Errorf("OptionsError.Field = %q, want Comma", oerr.Field)
		}
		if !errors.Is(err, csv.ErrInvalidSeparator) {
			t.Errorf("errors.Is(%v, ErrInvalidSeparator) = false", err)
		}
	})
}

func TestValidateWithOptions(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    csv.ReaderOptions
		wantErr bool
	}{
		{
			name:    "valid with custom delimiter",
			input:   "a\tb\tc",
			opts:    csv.ReaderOptions{Comma: '\t'},
			wantErr: false,
		},
		{
			name:    "tab in quotes is fine when it separates",
			input:   "\"a\tb\"\tc",
			opts:    csv.ReaderOptions{Comma: '\t'},
			wantErr: false,
		},
		{
			name:    "tab is a control character with comma",
			input:   "a\tb",
			opts:    csv.ReaderOptions{Comma: ','},
			wantErr: true,
		},
		{
			name:    "bare LF",
			input:   "a;b\n1;2",
			opts:    csv.ReaderOptions{Comma: ';'},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := csv.ValidateWithOptions(tt.input, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWithOptions() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
