package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a named, sugared zap logger
type Logger struct {
	*zap.SugaredLogger
}

var (
	globalLogger *Logger
	atomicLevel  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	once         sync.Once
)

// Init initializes the global logger. Only the first call builds the core;
// later calls only adjust the level.
func Init(level string, env string) {
	SetLevel(level)
	once.Do(func() { build(env) })
}

func build(env string) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if env == "production" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	// stderr keeps stdout free for CLI output
	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), atomicLevel)

	globalLogger = &Logger{zap.New(core, zap.AddCaller()).Sugar()}
}

// SetLevel changes the level of every logger handed out so far
func SetLevel(level string) {
	switch level {
	case "debug":
		atomicLevel.SetLevel(zapcore.DebugLevel)
	case "warn":
		atomicLevel.SetLevel(zapcore.WarnLevel)
	case "error":
		atomicLevel.SetLevel(zapcore.ErrorLevel)
	default:
		atomicLevel.SetLevel(zapcore.InfoLevel)
	}
}

// GetLogger returns a logger instance with the given name
func GetLogger(name string) *Logger {
	once.Do(func() { build("development") })

	return &Logger{
		globalLogger.Named(name),
	}
}

// With returns a logger with additional structured context
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{
		l.SugaredLogger.With(args...),
	}
}

// WithField returns a logger with a single field added to the context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		l.SugaredLogger.With(key, value),
	}
}
