// Package test provides a buffering logging.Logger for assertions in the
// compiler's own tests (e.g. "did lowering a mutable const global emit
// exactly one Warn-level line").
package test

import (
	"fmt"
	"sync"

	"github.com/ascwasm/ascc/logging"
)

// LogEntry is one buffered log message.
type LogEntry struct {
	Level   logging.Level
	Fields  map[string]any
	Message string
}

// Logger buffers messages instead of writing them anywhere, for test
// purposes.
type Logger struct {
	level   logging.Level
	fields  map[string]any
	entries *[]LogEntry
	mtx     sync.Mutex
}

// New instantiates a new Logger at Info level.
func New() *Logger {
	return &Logger{
		level:   logging.Info,
		entries: &[]LogEntry{},
	}
}

func (l *Logger) WithFields(fields map[string]any) logging.Logger {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{level: l.level, entries: l.entries, fields: merged}
}

func (l *Logger) Debug(f string, a ...any) { l.append(logging.Debug, f, a...) }
func (l *Logger) Info(f string, a ...any)  { l.append(logging.Info, f, a...) }
func (l *Logger) Error(f string, a ...any) { l.append(logging.Error, f, a...) }
func (l *Logger) Warn(f string, a ...any)  { l.append(logging.Warn, f, a...) }

func (l *Logger) SetLevel(level logging.Level) { l.level = level }
func (l *Logger) GetLevel() logging.Level      { return l.level }

// Entries returns every message buffered so far.
func (l *Logger) Entries() []LogEntry {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return *l.entries
}

func (l *Logger) append(lvl logging.Level, f string, a ...any) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	*l.entries = append(*l.entries, LogEntry{Level: lvl, Fields: l.fields, Message: fmt.Sprintf(f, a...)})
}
