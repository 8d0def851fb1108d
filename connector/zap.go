package connector

import (
	"go.uber.org/zap"
)

// zapLogger adapts a zap.Logger to the Logger interface so applications
// already carrying a zap logger can pass it through Options.Logger.
type zapLogger struct {
	l *zap.Logger
}

// NewZapLogger wraps an existing zap logger.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{l: l}
}

func zapFields(fields []Field) []zap.Field {
	zf := make([]zap.Field, 0, len(fields))
	for _, field := range redactSensitiveFields(fields) {
		zf = append(zf, zap.Any(field.Key, field.Value))
	}
	return zf
}

func (z *zapLogger) Debug(msg string, fields ...Field) {
	z.l.Debug(msg, zapFields(fields)...)
}

func (z *zapLogger) Info(msg string, fields ...Field) {
	z.l.Info(msg, zapFields(fields)...)
}

func (z *zapLogger) Warn(msg string, fields ...Field) {
	z.l.Warn(msg, zapFields(fields)...)
}

func (z *zapLogger) Error(msg string, fields ...Field) {
	z.l.Error(msg, zapFields(fields)...)
}

func (z *zapLogger) WithFields(fields ...Field) Logger {
	return &zapLogger{l: z.l.With(zapFields(fields)...)}
}
