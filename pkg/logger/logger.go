package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides a structured logging interface for the scheduler.
type Logger struct {
	*zap.SugaredLogger
}

// New creates a named logger writing console output to stdout. When
// MEAL_SCHEDULER_LOG_JSON is set the output switches to JSON lines, which is
// what we ship to the log collector in production.
func New(name string) *Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	level := zap.InfoLevel
	if os.Getenv("MEAL_SCHEDULER_LOG_DEBUG") != "" {
		level = zap.DebugLevel
	}

	var encoder zapcore.Encoder
	if os.Getenv("MEAL_SCHEDULER_LOG_JSON") != "" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)

	return &Logger{
		SugaredLogger: zap.New(core).Named(name).Sugar(),
	}
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}
