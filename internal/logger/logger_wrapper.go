package logger

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements the Logger contract on top of Uber's zap.
type ZapLogger struct {
	logger *zap.Logger
	level  contracts.LogLevel
}

// NewZapLogger creates a production zap logger behind the Logger contract.
func NewZapLogger() contracts.Logger {
	z, _ := zap.NewProduction(zap.WithCaller(false))
	return &ZapLogger{logger: z, level: contracts.InfoLevel}
}

// NewNop returns a logger that discards every message. Components fall
// back to it when no logger is injected.
func NewNop() contracts.Logger {
	return &ZapLogger{logger: zap.NewNop(), level: contracts.InfoLevel}
}

// Info logs a message at the INFO level
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.log(contracts.InfoLevel, msg, fields...)
}

// Error logs a message at the ERROR level
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.log(contracts.ErrorLevel, msg, fields...)
}

// Debug logs a message at the DEBUG level
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.log(contracts.DebugLevel, msg, fields...)
}

// Warn logs a message at the WARN level
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.log(contracts.WarnLevel, msg, fields...)
}

// Fatal logs a message at the FATAL level and terminates the application
func (z *ZapLogger) Fatal(msg string, fields ...contracts.Field) {
	z.log(contracts.FatalLevel, msg, fields...)
}

// Field returns a new instance of Field
func (z *ZapLogger) Field() contracts.Field {
	return &zapField{}
}

// SetLevel sets the logging level
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.level = level
}

// log filters by level, captures the call site, and hands structured
// fields to zap.
func (z *ZapLogger) log(level contracts.LogLevel, msg string, fields ...contracts.Field) {
	if severity(level) < severity(z.level) {
		return
	}

	zapFields := make([]zap.Field, 0, len(fields)+1)
	if _, file, line, ok := runtime.Caller(2); ok {
		zapFields = append(zapFields, zap.String("caller", fmt.Sprintf("%s:%d", filepath.Base(file), line)))
	}
	for _, field := range fields {
		if f, ok := field.(*zapField); ok && f.key != "" {
			zapFields = append(zapFields, zap.Any(f.key, f.value))
		}
	}

	switch level {
	case contracts.DebugLevel:
		z.logger.Debug(msg, zapFields...)
	case contracts.WarnLevel:
		z.logger.Warn(msg, zapFields...)
	case contracts.ErrorLevel:
		z.logger.Error(msg, zapFields...)
	case contracts.FatalLevel:
		z.logger.Fatal(msg, zapFields...)
	default:
		z.logger.Info(msg, zapFields...)
	}
}

// severity orders contract levels from chattiest to most severe. The
// contract declares its constants in a different order than zapcore, so
// both sides of the filter go through this table.
func severity(l contracts.LogLevel) int {
	switch l {
	case contracts.DebugLevel:
		return int(zapcore.DebugLevel)
	case contracts.WarnLevel:
		return int(zapcore.WarnLevel)
	case contracts.ErrorLevel:
		return int(zapcore.ErrorLevel)
	case contracts.FatalLevel:
		return int(zapcore.FatalLevel)
	default:
		return int(zapcore.InfoLevel)
	}
}

// zapField implements contracts.Field
type zapField struct {
	key   string
	value interface{}
}

func (f *zapField) Bool(key string, val bool) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) Int(key string, val int) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) Float64(key string, val float64) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) String(key string, val string) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) Time(key string, val time.Time) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) Int64(key string, val int64) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) Error(key string, val error) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) Uint64(key string, val uint64) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) Uint8(key string, val uint8) contracts.Field {
	return &zapField{key, val}
}

func (f *zapField) Duration(key string, val time.Duration) contracts.Field {
	return &zapField{key, val}
}
