// Package logger writes the persistent JSON-lines log with zerolog.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexisbeaulieu97/mhplugin/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
)

// FileName is the log file created under <dataRoot>/logs.
const FileName = "mhplugin.log"

// Options describes logger configuration supplied at creation time.
type Options struct {
	Level         string
	HumanReadable bool
	Writer        io.Writer
}

// Logger implements ports.Logger on top of zerolog. Fields passed to a call
// become top-level JSON keys.
type Logger struct {
	base   zerolog.Logger
	closer io.Closer
}

// New creates a Logger writing to opts.Writer, or stdout when unset.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	var output io.Writer = writer
	if opts.HumanReadable {
		console := zerolog.NewConsoleWriter()
		console.Out = writer
		console.TimeFormat = time.RFC3339
		output = console
	}

	base := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &Logger{base: base}, nil
}

// OpenFile appends JSON lines to <dir>/mhplugin.log, creating dir if needed.
func OpenFile(dir, level string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l, err := New(Options{Level: level, Writer: f})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	l.closer = f
	return l, nil
}

// Close releases the underlying file, if any.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Debug implements ports.Logger.
func (l *Logger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	l.write(ctx, zerolog.DebugLevel, msg, fields)
}

// Info implements ports.Logger.
func (l *Logger) Info(ctx context.Context, msg string, fields ...interface{}) {
	l.write(ctx, zerolog.InfoLevel, msg, fields)
}

// Warn implements ports.Logger.
func (l *Logger) Warn(ctx context.Context, msg string, fields ...interface{}) {
	l.write(ctx, zerolog.WarnLevel, msg, fields)
}

// Error implements ports.Logger.
func (l *Logger) Error(ctx context.Context, msg string, fields ...interface{}) {
	l.write(ctx, zerolog.ErrorLevel, msg, fields)
}

// With returns a derived logger that always writes fields. The derived
// logger shares the parent's file and must not be closed separately.
func (l *Logger) With(fields ...interface{}) ports.Logger {
	if l == nil {
		return logging.NewNoOpLogger()
	}
	merged := logging.MergeFields(nil, fields, nil)
	builder := l.base.With()
	for i := 0; i+1 < len(merged); i += 2 {
		builder = builder.Interface(merged[i].(string), merged[i+1])
	}
	return &Logger{base: builder.Logger()}
}

func (l *Logger) write(ctx context.Context, level zerolog.Level, msg string, fields []interface{}) {
	if l == nil {
		return
	}
	event := l.base.WithLevel(level)
	if event == nil {
		return
	}
	extras := map[string]interface{}{}
	if id := ports.GetCorrelationID(ctx); id != "" {
		extras["correlation_id"] = id
	}
	merged := logging.MergeFields(nil, fields, extras)
	for i := 0; i+1 < len(merged); i += 2 {
		event = event.Interface(merged[i].(string), merged[i+1])
	}
	event.Msg(msg)
}

var _ ports.Logger = (*Logger)(nil)
