// Package logging builds the component loggers used across formsync.
//
// Every component takes a *log.Logger with a "[component] " prefix. Output
// goes to stderr unless a log file is configured, in which case it goes
// through a size-rotated lumberjack writer.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config configures log output.
type Config struct {
	// File is the log file path. Empty logs to stderr.
	File string

	// MaxSizeMB is the size at which the file is rotated
	MaxSizeMB int

	// MaxBackups is how many rotated files to keep
	MaxBackups int

	// MaxAgeDays is how long rotated files are kept
	MaxAgeDays int

	// Compress gzips rotated files
	Compress bool

	// Quiet discards output when no file is configured
	Quiet bool
}

// Output is a shared log destination.
type Output struct {
	w      io.Writer
	closer io.Closer
}

// Open returns the destination described by cfg.
func Open(cfg Config) (*Output, error) {
	if cfg.File == "" {
		if cfg.Quiet {
			return &Output{w: io.Discard}, nil
		}
		return &Output{w: os.Stderr}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return &Output{w: rotator, closer: rotator}, nil
}

// Writer returns the underlying writer.
func (o *Output) Writer() io.Writer {
	return o.w
}

// Logger returns a logger prefixed with "[component] ".
func (o *Output) Logger(component string) *log.Logger {
	return log.New(o.w, "["+component+"] ", log.LstdFlags)
}

// Close closes the log file, if any.
func (o *Output) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}
