// Command csvlint checks that files are strict RFC 4180 CSV.
//
// Usage:
//
//	csvlint [flags] [file ...]
//
// With no files, csvlint reads standard input. Files ending in ".lz4" are
// decompressed on the fly. Each input is reported on stderr; the exit status
// is 0 when every input is valid, 1 when any input is invalid and 2 on a
// usage or configuration error.
//
// Settings come from the environment (and a .env file in the working
// directory), then from flags:
//
//	CSVLINT_SEPARATOR   -sep        field separator, or "auto"
//	CSVLINT_ENCODING    -encoding   input encoding (WHATWG name)
//	CSVLINT_CHUNK_SIZE  -chunk      characters parsed per step
//	CSVLINT_NORMALIZE   -normalize  re-emit valid input as comma-separated CRLF CSV
//	CSVLINT_OUTPUT      -o          normalized output; "-" is stdout, ".lz4" compresses
//	CSVLINT_TIMEOUT     -timeout    overall time limit
//	LOG_LEVEL           -log-level  debug, info, warn, error
//	LOG_FORMAT          -log-format text or json
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/pierrec/lz4/v4"
	"github.com/shapestone/shape-rfc4180/internal/config"
	"github.com/shapestone/shape-rfc4180/internal/logging"
	"github.com/shapestone/shape-rfc4180/pkg/csv"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitUsage   = 2
)

// sniffSize is how many leading bytes are examined when the separator is "auto".
const sniffSize = 8192

func main() {
	if _, err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "csvlint: %v\n", err)
		os.Exit(exitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process globals.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "csvlint: %v\n", err)
		return exitUsage
	}

	fs := flag.NewFlagSet("csvlint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Lint.Separator, "sep", cfg.Lint.Separator, `field separator, or "auto" to detect it`)
	fs.StringVar(&cfg.Lint.Encoding, "encoding", cfg.Lint.Encoding, "input encoding")
	fs.IntVar(&cfg.Lint.ChunkSize, "chunk", cfg.Lint.ChunkSize, "characters parsed per step")
	fs.BoolVar(&cfg.Lint.Normalize, "normalize", cfg.Lint.Normalize, "write valid input back out as RFC 4180 CSV")
	fs.StringVar(&cfg.Lint.Output, "o", cfg.Lint.Output, `normalized output file ("-" for stdout, ".lz4" to compress)`)
	fs.DurationVar(&cfg.Lint.Timeout, "timeout", cfg.Lint.Timeout, "overall time limit (0 for none)")
	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "log level: debug, info, warn, error")
	fs.StringVar(&cfg.Logging.Format, "log-format", cfg.Logging.Format, "log format: text or json")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "csvlint: %v\n", err)
		return exitUsage
	}

	logging.Setup(stderr, cfg.Logging.Level, cfg.Logging.Format)

	enc, err := lookupEncoding(cfg.Lint.Encoding)
	if err != nil {
		slog.Error("invalid encoding", "encoding", cfg.Lint.Encoding, "error", err)
		return exitUsage
	}

	opts := csv.DefaultReaderOptions()
	opts.ChunkSize = cfg.Lint.ChunkSize
	opts.Encoding = enc
	opts.Comma = cfg.SeparatorRune()
	if err := opts.Validate(); err != nil {
		slog.Error("invalid options", "error", err)
		return exitUsage
	}

	if cfg.Lint.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Lint.Timeout)
		defer cancel()
	}

	var out *output
	if cfg.Lint.Normalize {
		out, err = openOutput(cfg.Lint.Output, stdout)
		if err != nil {
			slog.Error("cannot open output", "output", cfg.Lint.Output, "error", err)
			return exitUsage
		}
	}

	l := &linter{opts: opts, out: out}

	inputs := fs.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	code := exitOK
	for _, name := range inputs {
		if ctx.Err() != nil {
			slog.Error("stopped", "error", ctx.Err())
			code = exitInvalid
			break
		}
		if !l.lintFile(logging.WithInput(ctx, name), name, stdin) {
			code = exitInvalid
		}
	}

	if out != nil {
		if err := out.Close(); err != nil {
			slog.Error("cannot finish output", "output", cfg.Lint.Output, "error", err)
			code = exitInvalid
		}
	}
	return code
}

// lookupEncoding resolves a WHATWG encoding label. UTF-8 maps to nil so the
// input is passed through undecoded.
func lookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, err
	}
	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		return nil, nil
	}
	return enc, nil
}

type linter struct {
	opts csv.ReaderOptions // Comma 0 detects the separator per input
	out  *output
}

// lintFile opens one input and validates it. It reports whether the input
// was valid.
func (l *linter) lintFile(ctx context.Context, name string, stdin io.Reader) bool {
	log := logging.FromContext(ctx)

	var r io.Reader
	if name == "-" {
		r = stdin
	} else {
		f, err := os.Open(name)
		if err != nil {
			log.Error("cannot open input", "error", err)
			return false
		}
		defer f.Close()
		r = f
	}
	if strings.HasSuffix(name, ".lz4") {
		r = lz4.NewReader(r)
	}

	records, err := l.lint(ctx, r)
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			log.Error("invalid CSV",
				"records", records,
				"line", perr.Line,
				"column", perr.Column,
				"offset", perr.Offset,
				"incomplete", perr.Incomplete,
				"error", errors.Unwrap(perr.Err),
			)
		} else {
			log.Error("cannot read input", "records", records, "error", err)
		}
		return false
	}

	log.Info("valid CSV", "records", records)
	return true
}

// lint scans r and, when normalizing, writes every record out. It returns
// the number of records read before any error.
func (l *linter) lint(ctx context.Context, r io.Reader) (int, error) {
	opts := l.opts
	if opts.Comma == 0 {
		br := bufio.NewReaderSize(r, sniffSize)
		sample, _ := br.Peek(sniffSize)
		opts.Comma = csv.SniffSeparator(string(trimPartialRune(sample)))
		logging.FromContext(ctx).Debug("detected separator", "separator", string(opts.Comma))
		r = br
	}

	scanner := csv.NewScanner(r).SetOptions(opts).SetContext(ctx)
	for scanner.Scan() {
		if l.out == nil {
			continue
		}
		if err := l.out.Write(scanner.Record()); err != nil {
			return scanner.Count(), err
		}
	}
	return scanner.Count(), scanner.Err()
}

// trimPartialRune drops a UTF-8 sequence cut off at the end of b.
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			break
		}
	}
	return b
}

// output is the destination of normalized records.
type output struct {
	*csv.Writer
	closers []io.Closer
}

// openOutput opens path for writing. "-" selects stdout, which is never
// closed, and a ".lz4" suffix compresses the stream.
func openOutput(path string, stdout io.Writer) (*output, error) {
	var w io.Writer = stdout
	var closers []io.Closer
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		w = f
		closers = append(closers, f)
	}
	if strings.HasSuffix(path, ".lz4") {
		zw := lz4.NewWriter(w)
		w = zw
		closers = append([]io.Closer{zw}, closers...)
	}
	return &output{Writer: csv.NewWriter(w), closers: closers}, nil
}

// Close flushes buffered records, then closes the compressor and the file.
func (o *output) Close() error {
	err := o.Flush()
	for _, c := range o.closers {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
