// Package logging is the human-readable file log. Every function is a no-op
// until Init succeeds, so packages may log unconditionally.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	mu      sync.RWMutex
	logger  *log.Logger
	logFile *os.File
)

// Options configures Init.
type Options struct {
	Dir     string // directory for dated log files
	Debug   bool   // include debug-level records
	Version string
}

// Init opens <Dir>/parcelscout-YYYY-MM-DD.log and installs the logger.
func Init(opts Options) error {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	name := fmt.Sprintf("parcelscout-%s.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(opts.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	level := log.InfoLevel
	if opts.Debug {
		level = log.DebugLevel
	}
	l := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
	})

	mu.Lock()
	logger, logFile = l, f
	mu.Unlock()

	l.Info("parcelscout started", "version", opts.Version)
	return nil
}

// InitWriter installs a logger writing to w. Used by CLI commands that log
// to stderr and by tests.
func InitWriter(w io.Writer, debug bool) {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	l := log.NewWithOptions(w, log.Options{Level: level})

	mu.Lock()
	logger = l
	mu.Unlock()
}

// Close flushes and closes the log file, then disables logging.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		logger.Info("parcelscout shutting down")
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logger = nil
}

func current() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs at debug level.
func Debug(msg string, keyvals ...interface{}) {
	if l := current(); l != nil {
		l.Debug(msg, keyvals...)
	}
}

// Info logs at info level.
func Info(msg string, keyvals ...interface{}) {
	if l := current(); l != nil {
		l.Info(msg, keyvals...)
	}
}

// Warn logs at warn level.
func Warn(msg string, keyvals ...interface{}) {
	if l := current(); l != nil {
		l.Warn(msg, keyvals...)
	}
}

// Error logs at error level.
func Error(msg string, keyvals ...interface{}) {
	if l := current(); l != nil {
		l.Error(msg, keyvals...)
	}
}

// WithPrefix returns a prefixed child logger, or nil before Init.
func WithPrefix(prefix string) *log.Logger {
	if l := current(); l != nil {
		return l.WithPrefix(prefix)
	}
	return nil
}
