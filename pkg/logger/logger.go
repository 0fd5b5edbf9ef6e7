// Package logger builds the process-wide zap logger.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Formats accepted by Init.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Init builds a zap logger with the given encoding ("console" or "json")
// and level. An unparseable level falls back to info.
func Init(format string, logLevel string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level, err := zapcore.ParseLevel(logLevel); err == nil {
		lvl = level
	}

	loggerCfg := &zap.Config{
		Level:    zap.NewAtomicLevelAt(lvl),
		Encoding: format,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "severity",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeTime:     zapcore.RFC3339TimeEncoder,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return loggerCfg.Build(zap.AddStacktrace(zap.DPanicLevel))
}
