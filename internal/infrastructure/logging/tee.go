package logging

import (
	"context"

	"github.com/alexisbeaulieu97/mhplugin/internal/ports"
)

// Tee forwards every call to each of its loggers in order.
type Tee []ports.Logger

// NewTee drops nil loggers and returns the remaining ones as a Tee.
func NewTee(loggers ...ports.Logger) Tee {
	out := make(Tee, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

// Debug implements ports.Logger.
func (t Tee) Debug(ctx context.Context, msg string, fields ...interface{}) {
	for _, l := range t {
		l.Debug(ctx, msg, fields...)
	}
}

// Info implements ports.Logger.
func (t Tee) Info(ctx context.Context, msg string, fields ...interface{}) {
	for _, l := range t {
		l.Info(ctx, msg, fields...)
	}
}

// Warn implements ports.Logger.
func (t Tee) Warn(ctx context.Context, msg string, fields ...interface{}) {
	for _, l := range t {
		l.Warn(ctx, msg, fields...)
	}
}

// Error implements ports.Logger.
func (t Tee) Error(ctx context.Context, msg string, fields ...interface{}) {
	for _, l := range t {
		l.Error(ctx, msg, fields...)
	}
}

// With implements ports.Logger.
func (t Tee) With(fields ...interface{}) ports.Logger {
	out := make(Tee, len(t))
	for i, l := range t {
		out[i] = l.With(fields...)
	}
	return out
}

var _ ports.Logger = Tee(nil)
