package logger

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ZerologLogger implements the ports.Logger interface on rs/zerolog, producing
// structured JSON (or console) output.
type ZerologLogger struct {
	zl zerolog.Logger
}

// ZerologConfig holds configuration for the zerolog adapter.
type ZerologConfig struct {
	Level   string    // debug, info, warn, error
	Console bool      // Human-readable console output instead of JSON
	Output  io.Writer // Defaults to os.Stderr
}

// NewZerolog creates a zerolog-backed logger. The level is applied per
// instance rather than through zerolog's global state.
func NewZerolog(cfg ZerologConfig) (*ZerologLogger, error) {
	levelStr := cfg.Level
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", cfg.Level, err)
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Console {
		output = zerolog.ConsoleWriter{Out: output}
	}

	zl := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &ZerologLogger{zl: zl}, nil
}

func applyFields(ev *zerolog.Event, fields []map[string]interface{}) *zerolog.Event {
	for _, m := range fields {
		if m != nil {
			ev = ev.Fields(m)
		}
	}
	return ev
}

// Debug logs a message at Debug level.
func (l *ZerologLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	applyFields(l.zl.Debug(), fields).Msg(msg)
}

// Info logs a message at Info level.
func (l *ZerologLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	applyFields(l.zl.Info(), fields).Msg(msg)
}

// Warn logs a message at Warning level.
func (l *ZerologLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	applyFields(l.zl.Warn(), fields).Msg(msg)
}

// Error logs an error message at Error level.
func (l *ZerologLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	applyFields(l.zl.Error().Err(err), fields).Msg(msg)
}
