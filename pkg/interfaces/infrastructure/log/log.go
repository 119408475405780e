// Package log defines the logging contract used across the keyring packages.
package log

import "go.uber.org/zap"

// Level is a log level name as it appears in configuration.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
	FatalLevel Level = "fatal"
)

// Logger is the structured logger interface.
//
// Implementations must never be handed secret material: callers log chain,
// index, address and operation names only.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	Fatal(msg string)
	Fatalf(format string, args ...interface{})

	// With returns a Logger carrying additional key/value fields.
	With(args ...interface{}) Logger

	// Sync flushes buffered entries.
	Sync() error

	// GetZapLogger exposes the underlying zap logger.
	GetZapLogger() *zap.Logger
}
