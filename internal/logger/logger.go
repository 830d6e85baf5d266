package logger

import (
	"strings"
	"sync"
)

// Log levels accepted in config (log.level).
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	// globalLogger holds the process-wide logger.
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process logger. The first call fixes the level; later
// calls return the same instance.
func Get(level string) *Logger {
	once.Do(func() {
		globalLogger = New(level)
	})
	return globalLogger
}

// normalizeLevel lowercases and trims a configured level.
func normalizeLevel(level string) string {
	return strings.ToLower(strings.TrimSpace(level))
}
