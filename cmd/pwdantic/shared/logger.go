package shared

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/Graph3x/pwdantic/internal/logging"
)

type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// NewLogger builds the CLI logger and its adapter for the migration engine.
func NewLogger(w io.Writer, format LogFormat) (*log.Logger, LogAdapter, error) {
	var logger *log.Logger
	switch format {
	case LogFormatText:
		logger = log.NewWithOptions(w, log.Options{Formatter: log.TextFormatter})
	case LogFormatJSON:
		logger = log.NewWithOptions(w, log.Options{Formatter: log.JSONFormatter})
	default:
		return nil, LogAdapter{}, fmt.Errorf("unknown log format: %s", format)
	}
	return logger, LogAdapter{logger}, nil
}

type LogAdapter struct {
	*log.Logger
}

var _ logging.Logger = LogAdapter{}

func (l LogAdapter) Log(_ context.Context, level logging.Level, msg string, fields ...logging.Field) {
	args := make([]any, 0, 2*len(fields))
	for _, field := range fields {
		args = append(args, field.Key, field.Value)
	}
	switch level {
	case logging.LevelDebug:
		l.Logger.Debug(msg, args...)
	case logging.LevelInfo:
		l.Logger.Info(msg, args...)
	case logging.LevelWarning:
		l.Logger.Warn(msg, args...)
	case logging.LevelError:
		l.Logger.Error(msg, args...)
	}
}
