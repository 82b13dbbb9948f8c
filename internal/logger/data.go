package logger

import (
	"log"
	"sync"
)

// Logger provides structured logging with levels.
// The zero value logs at LevelDebug through the standard library logger.
type Logger struct {
	MinLevel LogLevel
	mu       sync.Mutex
	out      *log.Logger
}

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelSilent discards every message; used by tests.
	LevelSilent
)
