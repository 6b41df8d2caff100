// Package logger defines the structured logging surface of the payment
// engine.
package logger

import "go.uber.org/zap"

// Logger is the minimal structured logger the engine components depend on.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
}

// Noop discards all log output. It is the default when no logger is
// configured.
type Noop struct{}

func (Noop) Debug(string, ...zap.Field) {}
func (Noop) Info(string, ...zap.Field)  {}
func (Noop) Warn(string, ...zap.Field)  {}
func (Noop) Error(string, ...zap.Field) {}
