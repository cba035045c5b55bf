package compiler

import (
	"fmt"

	"github.com/ascwasm/ascc/ast"
	"github.com/ascwasm/ascc/logging"
)

// LogSink is the default ast.DiagnosticSink: it both buffers every
// diagnostic (so callers, including tests, can assert on exactly what was
// reported — §8's testable properties require exact diagnostic counts) and
// forwards it to a logging.Logger at the matching severity, so a plain CLI
// invocation surfaces actionable output without extra wiring.
type LogSink struct {
	Logger      logging.Logger
	Diagnostics []ast.Diagnostic
}

// NewLogSink returns a LogSink backed by logger. A nil logger falls back to
// logging.NewNoOpLogger(), matching the teacher's own "it's fine to run
// headless" default.
func NewLogSink(logger logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &LogSink{Logger: logger}
}

func (s *LogSink) Report(d ast.Diagnostic) {
	s.Diagnostics = append(s.Diagnostics, d)
	loc := ""
	if d.Where.Source != "" {
		loc = fmt.Sprintf("%s:%d:%d: ", d.Where.Source, d.Where.StartLine, d.Where.StartCol)
	}
	switch d.Severity {
	case ast.SeverityError:
		s.Logger.Error("%s%s", loc, d.Message)
	case ast.SeverityWarning:
		s.Logger.Warn("%s%s", loc, d.Message)
	default:
		s.Logger.Info("%s%s", loc, d.Message)
	}
}

// HasErrors reports whether any SeverityError diagnostic was reported,
// used by the driver to decide whether a compile "succeeded" in the sense
// of producing a semantically valid module (§7: the module may still be
// returned even with errors, containing `unreachable` at the offending
// sites).
func (s *LogSink) HasErrors() bool {
	for _, d := range s.Diagnostics {
		if d.Severity == ast.SeverityError {
			return true
		}
	}
	return false
}

// InternalError signals an invariant violation — a concrete type expected
// but an abstract one found, a branch that should be unreachable reached,
// or an unimplemented feature requested (try/catch/finally, labeled break,
// rest parameters, interfaces, indexed set without an operator, typeof).
// Per §7, the core never recovers from these; they propagate as a panic
// that the CLI boundary (cmd/errors.go) turns into a process exit code.
type InternalError struct {
	Message string
	Node    string
}

func (e *InternalError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("internal error: %s (at %s)", e.Message, e.Node)
	}
	return fmt.Sprintf("internal error: %s", e.Message)
}

func internalErrorf(node string, format string, args ...any) error {
	return &InternalError{Message: fmt.Sprintf(format, args...), Node: node}
}

func panicInternal(node string, format string, args ...any) {
	panic(internalErrorf(node, format, args...))
}
