// Package logging is the human-readable diagnostic log. The TUI owns the
// terminal, so everything goes to a dated file under the state directory.
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
	mu      sync.Mutex
	logger  = log.New(io.Discard)
	logFile *os.File
)

// Init opens hnterm-YYYY-MM-DD.log in dir and routes all package helpers to it.
// level is one of debug, info, warn, error; unknown values fall back to info.
func Init(dir, level string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(dir, fmt.Sprintf("hnterm-%s.log", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open log file: %w", err)
	}

	SetOutput(f, level)

	mu.Lock()
	logFile = f
	mu.Unlock()
	return logPath, nil
}

// SetOutput points the logger at w. Tests use it with a bytes.Buffer.
func SetOutput(w io.Writer, level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}

	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
	})

	mu.Lock()
	logger = l
	mu.Unlock()
}

// Close closes the log file, if one was opened by Init.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logger.Info("hnterm shutting down")
		logFile.Close()
		logFile = nil
	}
	logger = log.New(io.Discard)
}

func current() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// With returns a sub-logger carrying the given key/value pairs, e.g. a component name.
func With(keyvals ...interface{}) *log.Logger {
	return current().With(keyvals...)
}

func Debug(msg string, keyvals ...interface{}) { current().Debug(msg, keyvals...) }

func Info(msg string, keyvals ...interface{}) { current().Info(msg, keyvals...) }

func Warn(msg string, keyvals ...interface{}) { current().Warn(msg, keyvals...) }

func Error(msg string, keyvals ...interface{}) { current().Error(msg, keyvals...) }
