// Package rlog provides package-wide debug logging using log/slog.
package rlog

import (
	"log/slog"
	"os"
	"sync"
)

var (
	logger  *slog.Logger
	enabled bool
	mu      sync.RWMutex
)

func init() {
	Init(false)
}

// Init configures the package logger. When enable is false, logs are
// routed to a handler above the Error level so they are effectively
// discarded.
func Init(enable bool) {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable

	if enable {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		return
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Enabled reports whether logging is currently enabled.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Debug(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Error(msg, args...)
}
