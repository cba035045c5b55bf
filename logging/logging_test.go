package logging

import "testing"

func TestWithFields(t *testing.T) {
	logger := New().WithFields(map[string]any{"context": "contextvalue"})

	sl, ok := logger.(*StandardLogger)
	if !ok {
		t.Fatal("WithFields did not return a *StandardLogger")
	}
	if sl.entry.Data["context"] != "contextvalue" {
		t.Fatal("logger did not carry the configured field")
	}
}

func TestSetLevelRoundTrips(t *testing.T) {
	logger := New()
	logger.SetLevel(Error)
	if got := logger.GetLevel(); got != Error {
		t.Fatalf("GetLevel() = %v, want %v", got, Error)
	}
}

func TestNoOpLoggerDiscardsEverything(t *testing.T) {
	logger := NewNoOpLogger()
	logger.Debug("should not panic")
	logger.Error("should not panic either")
	if logger.GetLevel() != Error {
		t.Fatalf("NoOpLogger.GetLevel() = %v, want %v", logger.GetLevel(), Error)
	}
}
