package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger adapts a *zap.Logger to the Logger interface.
type zapLogger struct {
	log *zap.Logger
}

// New builds a production zap logger at the given level. Unknown levels
// fall back to info.
func New(level string) Logger {
	cfg := zap.NewProductionConfig()

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	log, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return Noop{}
	}
	return &zapLogger{log: log.Named("relaypay")}
}

// FromZap wraps an existing zap logger, for callers that already own one.
func FromZap(log *zap.Logger) Logger {
	return &zapLogger{log: log}
}

func (z *zapLogger) Debug(msg string, fields ...zap.Field) { z.log.Debug(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...zap.Field)  { z.log.Info(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...zap.Field)  { z.log.Warn(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...zap.Field) { z.log.Error(msg, fields...) }
