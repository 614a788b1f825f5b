package logger

import (
	"errors"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log   = zap.NewNop()
	files []*os.File
)

type Configuration struct {
	LogFile   string
	ErrorFile string
	Level     string
	Console   bool
}

// Initialize replaces the process logger. Until it is called every log call is a no-op.
// It must be called once at startup, before any goroutine logs, and paired with Close.
func Initialize(configuration Configuration) error {
	if err := Close(); err != nil {
		return err
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(configuration.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var cores []zapcore.Core

	if configuration.LogFile != "" {
		logFile, err := os.OpenFile(configuration.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("logger: open log file: %w", err)
		}
		files = append(files, logFile)

		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(logFile),
			level,
		))
	}

	if configuration.ErrorFile != "" {
		errorFile, err := os.OpenFile(configuration.ErrorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			_ = closeFiles()
			return fmt.Errorf("logger: open error file: %w", err)
		}
		files = append(files, errorFile)

		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(errorFile),
			zapcore.ErrorLevel,
		))
	}

	if configuration.Console {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stdout),
			level,
		))
	}

	log = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return nil
}

// Address renders an account identity as a base58 field.
func Address(key string, address solana.PublicKey) zap.Field {
	return zap.Stringer(key, address)
}

func Debug(message string, fields ...zap.Field) {
	log.Debug(message, fields...)
}

func Info(message string, fields ...zap.Field) {
	log.Info(message, fields...)
}

func Warn(message string, fields ...zap.Field) {
	log.Warn(message, fields...)
}

func Error(message string, fields ...zap.Field) {
	log.Error(message, fields...)
}

// Close flushes the logger, closes its files and falls back to the no-op logger.
func Close() error {
	_ = log.Sync()
	log = zap.NewNop()
	return closeFiles()
}

func closeFiles() error {
	var errs []error
	for _, file := range files {
		if err := file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	files = nil
	return errors.Join(errs...)
}
