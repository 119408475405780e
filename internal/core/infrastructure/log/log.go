// Package log provides the zap-backed Logger with lumberjack file rotation.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	logconfig "github.com/weisyn/keyring/internal/config/log"
	logInterface "github.com/weisyn/keyring/pkg/interfaces/infrastructure/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger logInterface.Logger = NewNopLogger()
	mu           sync.RWMutex
)

// Logger implements logInterface.Logger on zap.
type Logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

var _ logInterface.Logger = (*Logger)(nil)

// createFileWriter returns a rotating writer for logPath, or stderr when the
// directory cannot be created.
func createFileWriter(logPath string, config *logconfig.Config) zapcore.WriteSyncer {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "create log directory %s: %v\n", logDir, err)
		return zapcore.AddSync(os.Stderr)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    config.GetMaxSize(),
		MaxBackups: config.GetMaxBackups(),
		MaxAge:     config.GetMaxAge(),
		Compress:   config.IsCompressionEnabled(),
	})
}

// New builds a Logger from config. Console output goes to stderr so stdout
// stays reserved for command results.
func New(config *logconfig.Config) (logInterface.Logger, error) {
	return newWithConsole(config, os.Stderr)
}

func newWithConsole(config *logconfig.Config, console io.Writer) (logInterface.Logger, error) {
	level := zap.NewAtomicLevelAt(config.GetZapLevel())

	var cores []zapcore.Core
	outputPath := config.GetFilePath()
	if config.IsConsoleEnabled() || outputPath == "stderr" {
		cores = append(cores, zapcore.NewCore(config.CreateConsoleEncoder(), zapcore.AddSync(console), level))
	}
	if outputPath != "" && outputPath != "stderr" {
		absPath, err := filepath.Abs(outputPath)
		if err != nil {
			return nil, fmt.Errorf("resolve log file path: %w", err)
		}
		cores = append(cores, zapcore.NewCore(config.CreateFileEncoder(), createFileWriter(absPath, config), level))
	}
	if len(cores) == 0 {
		return NewNopLogger(), nil
	}

	var zapOptions []zap.Option
	if config.IsCallerEnabled() {
		// skip this wrapper so the caller points at the real call site
		zapOptions = append(zapOptions, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if config.IsStacktraceEnabled() {
		zapOptions = append(zapOptions, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), zapOptions...)
	return &Logger{zapLogger: zapLogger, sugar: zapLogger.Sugar()}, nil
}

// NewFromZap wraps an existing zap logger, e.g. zaptest/observer in tests.
func NewFromZap(z *zap.Logger) logInterface.Logger {
	if z == nil {
		return NewNopLogger()
	}
	return &Logger{zapLogger: z, sugar: z.Sugar()}
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() logInterface.Logger {
	z := zap.NewNop()
	return &Logger{zapLogger: z, sugar: z.Sugar()}
}

// SetLogger replaces the global logger. nil is ignored.
func SetLogger(logger logInterface.Logger) {
	if logger == nil {
		return
	}
	mu.Lock()
	globalLogger = logger
	mu.Unlock()
}

// GetLogger returns the global logger.
func GetLogger() logInterface.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// OrNop returns logger, or a nop logger when it is nil.
func OrNop(logger logInterface.Logger) logInterface.Logger {
	if logger == nil {
		return NewNopLogger()
	}
	return logger
}

// toZapFields turns key/value pairs into zap fields. A trailing key without a
// value is dropped.
func toZapFields(args ...interface{}) []zap.Field {
	if len(args)%2 != 0 {
		args = args[:len(args)-1]
	}
	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}

// GetZapLogger returns the underlying zap logger.
func (l *Logger) GetZapLogger() *zap.Logger { return l.zapLogger }

// Debug logs at debug level.
func (l *Logger) Debug(msg string) { l.sugar.Debug(msg) }

// Debugf logs a formatted message at debug level.
func (l *Logger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

// Info logs at info level.
func (l *Logger) Info(msg string) { l.sugar.Info(msg) }

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...interface{}) { l.sugar.Infof(format, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string) { l.sugar.Warn(msg) }

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }

// Error logs at error level.
func (l *Logger) Error(msg string) { l.sugar.Error(msg) }

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// Fatal logs at fatal level and exits.
func (l *Logger) Fatal(msg string) { l.sugar.Fatal(msg) }

// Fatalf logs a formatted message at fatal level and exits.
func (l *Logger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

// With returns a child logger carrying the key/value pairs.
func (l *Logger) With(args ...interface{}) logInterface.Logger {
	child := l.zapLogger.With(toZapFields(args...)...)
	return &Logger{zapLogger: child, sugar: child.Sugar()}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error { return l.zapLogger.Sync() }
