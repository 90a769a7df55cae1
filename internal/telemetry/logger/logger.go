package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the application logger interface.
//
// args are alternating key/value pairs, e.g. Info("db_query", "delay", 12.5).
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Log(level Level, msg string, args ...any)
	With(args ...any) Logger
	Sync() error
}

// Level is a logging priority.
type Level = zapcore.Level

// Supported levels.
const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is the output format (json, console).
	Format string
	// Output is the destination writer (defaults to os.Stderr).
	Output io.Writer
	// Console mirrors every record to stdout in human-readable form.
	Console bool
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Output: os.Stderr,
	}
}

// globalLevel is shared by every logger built with New, so the level can be
// changed at runtime (config reload).
var globalLevel = zap.NewAtomicLevel()

// New creates a new logger with the given configuration.
func New(cfg Config) (Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	globalLevel.SetLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), zapcore.Lock(zapcore.AddSync(output)), globalLevel)
	if cfg.Console {
		core = zapcore.NewTee(core, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoderConfig()),
			zapcore.Lock(os.Stdout),
			globalLevel,
		))
	}

	// Internal zap errors (failed writes) are discarded.
	z := zap.New(core, zap.ErrorOutput(zapcore.AddSync(io.Discard)))
	return NewZap(z), nil
}

// NewZap wraps an existing zap logger.
func NewZap(z *zap.Logger) Logger {
	return &zapLogger{sugar: z.Sugar()}
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return NewZap(zap.NewNop())
}

// ParseLevel converts a level name to a Level. The empty string means info.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "":
		return InfoLevel, nil
	case "warning":
		return WarnLevel, nil
	}

	l, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return InfoLevel, fmt.Errorf("parse log level %q: %w", level, err)
	}
	return l, nil
}

// SetLevel dynamically sets the global log level.
func SetLevel(level string) error {
	l, err := ParseLevel(level)
	if err != nil {
		return err
	}
	globalLevel.SetLevel(l)
	return nil
}

// GetLevel returns the current log level as a string.
func GetLevel() string {
	return globalLevel.Level().String()
}

// zapLogger adapts a zap.SugaredLogger to Logger.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }

func (l *zapLogger) Log(level Level, msg string, args ...any) {
	switch level {
	case DebugLevel:
		l.sugar.Debugw(msg, args...)
	case WarnLevel:
		l.sugar.Warnw(msg, args...)
	case ErrorLevel:
		l.sugar.Errorw(msg, args...)
	default:
		l.sugar.Infow(msg, args...)
	}
}

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{sugar: l.sugar.With(args...)}
}

func (l *zapLogger) Sync() error {
	return l.sugar.Sync()
}

// Global logger instance for convenience methods.
var defaultLogger atomic.Pointer[Logger]

func init() {
	l, _ := New(DefaultConfig())
	SetDefault(l)
}

// SetDefault sets the default global logger.
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger.Store(&l)
	}
}

// Default returns the default global logger.
func Default() Logger {
	return *defaultLogger.Load()
}

// Debug logs at debug level using the default logger.
func Debug(msg string, args ...any) {
	Default().Debug(msg, args...)
}

// Info logs at info level using the default logger.
func Info(msg string, args ...any) {
	Default().Info(msg, args...)
}

// Warn logs at warn level using the default logger.
func Warn(msg string, args ...any) {
	Default().Warn(msg, args...)
}

// Error logs at error level using the default logger.
func Error(msg string, args ...any) {
	Default().Error(msg, args...)
}
