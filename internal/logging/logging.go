// Package logging builds the process logger: a console core on stdout and an
// optional JSON file core rotated by lumberjack.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Options configure New.
type Options struct {
	// Env selects the console encoder: JSON in production, human readable
	// otherwise. The test environment discards console output.
	Env string
	// Level is one of debug, info, warn or error. Empty means debug in
	// development and info elsewhere.
	Level string
	// File enables a JSON log file with rotation.
	File string
	// MaxSizeMB, MaxBackups and MaxAgeDays tune rotation; zero values use
	// 10MB, 5 files and 30 days.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Console overrides stdout, mostly for tests.
	Console io.Writer
}

// New builds a logger from opts. The returned closer flushes the logger and
// releases the log file.
func New(opts Options) (*zap.Logger, func() error, error) {
	level, err := parseLevel(opts.Level, opts.Env)
	if err != nil {
		return nil, nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)

	var cores []zapcore.Core
	if opts.Env != EnvTest || opts.Console != nil {
		console := opts.Console
		if console == nil {
			console = os.Stdout
		}
		consoleEncoder := jsonEncoder
		if opts.Env != EnvProduction {
			consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		}
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(zapcore.AddSync(console)), level))
	}

	var rotator *lumberjack.Logger
	if path := strings.TrimSpace(opts.File); path != "" {
		rotator = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 30),
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(rotator), level))
	}

	if len(cores) == 0 {
		return zap.NewNop(), func() error { return nil }, nil
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	closer := func() error {
		_ = logger.Sync()
		if rotator != nil {
			return rotator.Close()
		}
		return nil
	}
	return logger, closer, nil
}

func parseLevel(raw, env string) (zapcore.Level, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if env == EnvDevelopment {
			return zapcore.DebugLevel, nil
		}
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(raw)
	if err != nil {
		return level, fmt.Errorf("logging: %w", err)
	}
	return level, nil
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
