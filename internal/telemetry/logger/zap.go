package logger

import (
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// timeLayout is ISO-8601 with millisecond precision, always rendered in UTC
// (e.g. 2024-05-01T12:00:00.000Z).
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func encodeTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(timeLayout))
}

// jsonEncoderConfig produces {"ts":...,"level":"INFO","msg":...,<fields>}.
func jsonEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     encodeTime,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := jsonEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.ConsoleSeparator = " "
	return cfg
}

func newEncoder(format string) zapcore.Encoder {
	switch strings.ToLower(format) {
	case "console", "text":
		return zapcore.NewConsoleEncoder(consoleEncoderConfig())
	default: // json
		return zapcore.NewJSONEncoder(jsonEncoderConfig())
	}
}
