package log

import (
	"go.uber.org/zap/zapcore"
)

const (
	// warn keeps the CLI quiet unless something needs attention
	defaultLogLevel = "warn"

	defaultToConsole = true

	// no file unless configured
	defaultFilePath = ""

	defaultMaxSize    = 20
	defaultMaxBackups = 5
	defaultMaxAge     = 30
	defaultCompress   = true

	defaultEnableCaller     = false
	defaultEnableStacktrace = false
)

var defaultLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"panic": zapcore.PanicLevel,
	"fatal": zapcore.FatalLevel,
}
