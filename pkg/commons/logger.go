// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package commons

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the application-wide logging surface. Every component takes it as
// a constructor argument instead of reaching for a global.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Sync() error
}

type loggerOptions struct {
	name  string
	path  string
	level string
}

type LoggerOption func(*loggerOptions)

// Name sets the service name stamped on every log line and used for the
// rotated file name.
func Name(name string) LoggerOption {
	return func(o *loggerOptions) { o.name = name }
}

// Path sets the directory for rotated log files.
func Path(path string) LoggerOption {
	return func(o *loggerOptions) { o.path = path }
}

// Level sets the minimum level: debug, info, warn or error.
func Level(level string) LoggerOption {
	return func(o *loggerOptions) { o.level = level }
}

type applicationLogger struct {
	zap *zap.SugaredLogger
}

// NewApplicationLogger builds a zap-backed logger writing to stdout and a
// lumberjack-rotated file under the configured path.
func NewApplicationLogger(opts ...LoggerOption) (Logger, error) {
	options := &loggerOptions{
		name:  "voicestudio",
		path:  "logs",
		level: "info",
	}
	for _, opt := range opts {
		opt(options)
	}

	var level zapcore.Level
	if err := level.Set(options.level); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", options.level, err)
	}

	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(options.path, options.name+".log"),
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(rotated), level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stdout), level),
	)

	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).
		Named(options.name)
	return &applicationLogger{zap: base.Sugar()}, nil
}

func (l *applicationLogger) Debug(msg string) { l.zap.Debug(msg) }
func (l *applicationLogger) Info(msg string)  { l.zap.Info(msg) }
func (l *applicationLogger) Warn(msg string)  { l.zap.Warn(msg) }
func (l *applicationLogger) Error(msg string) { l.zap.Error(msg) }

func (l *applicationLogger) Debugf(format string, args ...interface{}) {
	l.zap.Debugf(format, args...)
}

func (l *applicationLogger) Infof(format string, args ...interface{}) {
	l.zap.Infof(format, args...)
}

func (l *applicationLogger) Warnf(format string, args ...interface{}) {
	l.zap.Warnf(format, args...)
}

func (l *applicationLogger) Errorf(format string, args ...interface{}) {
	l.zap.Errorf(format, args...)
}

func (l *applicationLogger) Sync() error {
	return l.zap.Sync()
}
