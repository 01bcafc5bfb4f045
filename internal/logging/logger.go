// Package logging builds the human-facing charmbracelet logger used for
// command progress. Level, prefix and destination come from the
// environment:
//
//	ILPATCH_LOG_LEVEL    debug, info, warn, error (default info)
//	ILPATCH_LOG_PREFIX   message prefix (default "ilpatch")
//	ILPATCH_LOG_TO_FILE  "1" writes to ilpatch-<timestamp>.log instead of stderr
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	EnvLevel  = "ILPATCH_LOG_LEVEL"
	EnvPrefix = "ILPATCH_LOG_PREFIX"
	EnvToFile = "ILPATCH_LOG_TO_FILE"
)

// Logger is a charmbracelet logger that owns its writer.
type Logger struct {
	*log.Logger
	closer io.Closer
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Level returns the level named by ILPATCH_LOG_LEVEL.
func Level() log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(os.Getenv(EnvLevel)))
	if err != nil || os.Getenv(EnvLevel) == "" {
		return log.InfoLevel
	}
	return lvl
}

// IsDebug reports whether ILPATCH_LOG_LEVEL asks for debug output.
func IsDebug() bool { return Level() == log.DebugLevel }

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer) *Logger {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           Level(),
	})

	prefix := os.Getenv(EnvPrefix)
	if prefix == "" {
		prefix = "ilpatch"
	}
	lg.SetPrefix(prefix)

	var closer io.Closer
	if c, ok := w.(io.Closer); ok && w != os.Stderr && w != os.Stdout {
		closer = c
	}
	return &Logger{Logger: lg, closer: closer}
}

// New creates a logger on stderr, or on a timestamped file when
// ILPATCH_LOG_TO_FILE=1. File creation errors fall back to stderr.
func New() *Logger {
	if os.Getenv(EnvToFile) == "1" {
		name := fmt.Sprintf("ilpatch-%s.log", time.Now().Format("20060102-150405"))
		if f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644); err == nil {
			return NewWithWriter(f)
		}
	}
	return NewWithWriter(os.Stderr)
}
