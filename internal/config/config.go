// Package config loads csvlint settings from environment variables and
// optional .env files. Command-line flags override whatever is loaded here.
package config

import "time"

// Config holds all csvlint configuration.
type Config struct {
	Lint    LintConfig
	Logging LoggingConfig
}

// LintConfig holds parsing and output settings.
type LintConfig struct {
	// Separator is the field separator, a single character or "auto"
	// to detect it from the first bytes of each input (default: ",")
	Separator string `env:"CSVLINT_SEPARATOR" default:","`

	// Encoding names the input encoding, e.g. "utf-8", "windows-1252",
	// "shift_jis" (default: utf-8)
	Encoding string `env:"CSVLINT_ENCODING" default:"utf-8"`

	// ChunkSize is the number of characters fed to the parser at a time
	// (default: 4096)
	ChunkSize int `env:"CSVLINT_CHUNK_SIZE" default:"4096"`

	// Normalize re-emits valid input as RFC 4180 CSV (default: false)
	Normalize bool `env:"CSVLINT_NORMALIZE" default:"false"`

	// Output is where normalized CSV goes; "-" is stdout and a ".lz4"
	// suffix compresses (default: -)
	Output string `env:"CSVLINT_OUTPUT" default:"-"`

	// Timeout bounds the whole run; 0 disables it (default: 0s)
	Timeout time.Duration `env:"CSVLINT_TIMEOUT" default:"0s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" envAlt:"CSVLINT_LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" envAlt:"CSVLINT_LOG_FORMAT" default:"text"`
}
