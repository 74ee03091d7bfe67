package logging

import (
	"context"
	"fmt"
	"testing"
)

// Level is the severity of a log message.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Field holds a key/value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// Logger is a generic structured logging interface. Adapt whatever logging
// library your application already uses to it; a nil Logger logs nothing.
type Logger interface {
	Log(context.Context, Level, string, ...Field)
}

// Helper is an optional interface a Logger can implement so that helper
// frames are omitted from stack traces, primarily in tests.
type Helper interface {
	Helper()
}

// Emit writes msg to logger if it is non-nil.
func Emit(ctx context.Context, logger Logger, level Level, msg string, fields ...Field) {
	if logger == nil {
		return
	}
	if helper, ok := logger.(Helper); ok {
		helper.Helper()
	}
	logger.Log(ctx, level, msg, fields...)
}

// NewTestLogger returns a TestLogger writing to the given test's output.
func NewTestLogger(t *testing.T) TestLogger {
	return TestLogger{t}
}

// TestLogger implements Logger and Helper by writing pseudo key=value lines
// to a test's output.
type TestLogger struct {
	*testing.T
}

func (t TestLogger) Log(_ context.Context, level Level, msg string, fields ...Field) {
	t.Helper()
	line := fmt.Sprintf("%s: %s", level, msg)
	for _, field := range fields {
		line = fmt.Sprintf("%s %s=%v", line, field.Key, field.Value)
	}
	t.T.Log(line)
}
