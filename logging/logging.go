// Package logging provides the structured logger the compiler and CLI hold;
// the compiler's LogSink surfaces diagnostics through it at Error/Warn/Info
// (the compiler emits no Debug-level stage traces of its own). It
// is a thin wrapper over logrus, the same library the teacher's own
// logging package is backed by, kept in this module's own package
// (dropping the teacher's extra indirection through a versioned
// sub-package, and its HTTP-request-context helpers, since a lowering
// engine has no request lifecycle to thread a context through — see
// DESIGN.md).
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Level is a logging severity level.
type Level uint8

const (
	Error Level = iota
	Warn
	Info
	Debug
)

func (l Level) String() string {
	switch l {
	case Error:
		return "error"
	case Warn:
		return "warn"
	case Info:
		return "info"
	default:
		return "debug"
	}
}

// Logger is the interface the compiler logs through; a host embedding this
// module may supply its own implementation in place of StandardLogger.
type Logger interface {
	Debug(fmt string, a ...any)
	Info(fmt string, a ...any)
	Warn(fmt string, a ...any)
	Error(fmt string, a ...any)
	WithFields(fields map[string]any) Logger
	SetLevel(Level)
	GetLevel() Level
}

// StandardLogger is the default Logger implementation.
type StandardLogger struct {
	entry *logrus.Entry
}

// New returns a new StandardLogger writing to stderr at Info level,
// matching the teacher's default.
func New() *StandardLogger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	return &StandardLogger{entry: logrus.NewEntry(l)}
}

var std = New()

// Get returns the package-level standard logger used by default.
//
// Deprecated: prefer passing a Logger explicitly; kept for parity with the
// teacher's global-logger escape hatch.
func Get() *StandardLogger { return std }

func (l *StandardLogger) Debug(f string, a ...any) { l.entry.Debugf(f, a...) }
func (l *StandardLogger) Info(f string, a ...any)  { l.entry.Infof(f, a...) }
func (l *StandardLogger) Warn(f string, a ...any)  { l.entry.Warnf(f, a...) }
func (l *StandardLogger) Error(f string, a ...any) { l.entry.Errorf(f, a...) }

func (l *StandardLogger) WithFields(fields map[string]any) Logger {
	return &StandardLogger{entry: l.entry.WithFields(fields)}
}

func (l *StandardLogger) SetLevel(lvl Level) {
	l.entry.Logger.SetLevel(toLogrusLevel(lvl))
}

func (l *StandardLogger) GetLevel() Level {
	return fromLogrusLevel(l.entry.Logger.GetLevel())
}

func toLogrusLevel(l Level) logrus.Level {
	switch l {
	case Error:
		return logrus.ErrorLevel
	case Warn:
		return logrus.WarnLevel
	case Info:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

func fromLogrusLevel(l logrus.Level) Level {
	switch l {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return Error
	case logrus.WarnLevel:
		return Warn
	case logrus.InfoLevel:
		return Info
	default:
		return Debug
	}
}

// NoOpLogger discards every message; useful for tests that assert behavior
// without wanting log noise.
type NoOpLogger struct{}

func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (*NoOpLogger) Debug(string, ...any)         {}
func (*NoOpLogger) Info(string, ...any)          {}
func (*NoOpLogger) Warn(string, ...any)          {}
func (*NoOpLogger) Error(string, ...any)         {}
func (n *NoOpLogger) WithFields(map[string]any) Logger { return n }
func (*NoOpLogger) SetLevel(Level)               {}
func (*NoOpLogger) GetLevel() Level               { return Error }
