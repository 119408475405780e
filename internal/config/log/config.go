// Package log holds the logger configuration and its defaults.
package log

import (
	"strings"

	"github.com/weisyn/keyring/pkg/types"
	"go.uber.org/zap/zapcore"
)

// LogOptions logger options.
type LogOptions struct {
	// === basic ===
	Level     string `json:"level"`      // debug, info, warn, error, fatal
	ToConsole bool   `json:"to_console"` // write to stderr
	FilePath  string `json:"file_path"`  // rotated log file, empty or "stderr" for none

	// === rotation ===
	MaxSize    int  `json:"max_size"`    // MB per file
	MaxBackups int  `json:"max_backups"` // rotated files kept
	MaxAge     int  `json:"max_age"`     // days kept
	Compress   bool `json:"compress"`    // gzip rotated files

	// === debugging ===
	EnableCaller     bool `json:"enable_caller"`
	EnableStacktrace bool `json:"enable_stacktrace"`

	LevelMap map[string]zapcore.Level `json:"-"`
}

// Config wraps LogOptions with typed accessors.
type Config struct {
	options *LogOptions
}

// New builds a Config from defaults overlaid with the user configuration.
func New(userConfig *types.UserLogConfig) *Config {
	options := createDefaultLogOptions()
	if userConfig != nil {
		applyUserLogConfig(options, userConfig)
	}
	return &Config{options: options}
}

// NewFromOptions wraps already resolved options.
func NewFromOptions(options *LogOptions) *Config {
	if options == nil {
		return New(nil)
	}
	if options.LevelMap == nil {
		options.LevelMap = defaultLevelMap
	}
	return &Config{options: options}
}

func createDefaultLogOptions() *LogOptions {
	return &LogOptions{
		Level:            defaultLogLevel,
		ToConsole:        defaultToConsole,
		FilePath:         defaultFilePath,
		MaxSize:          defaultMaxSize,
		MaxBackups:       defaultMaxBackups,
		MaxAge:           defaultMaxAge,
		Compress:         defaultCompress,
		EnableCaller:     defaultEnableCaller,
		EnableStacktrace: defaultEnableStacktrace,
		LevelMap:         defaultLevelMap,
	}
}

func applyUserLogConfig(options *LogOptions, userConfig *types.UserLogConfig) {
	if userConfig.Level != nil {
		options.Level = strings.ToLower(strings.TrimSpace(*userConfig.Level))
	}
	if userConfig.FilePath != nil {
		options.FilePath = strings.TrimSpace(*userConfig.FilePath)
		// a file path turns console output off unless asked for explicitly
		options.ToConsole = false
	}
	if userConfig.ToConsole != nil {
		options.ToConsole = *userConfig.ToConsole
	}
}

// GetOptions returns the resolved options.
func (c *Config) GetOptions() *LogOptions {
	return c.options
}

// GetLevel returns the configured level name.
func (c *Config) GetLevel() string {
	return c.options.Level
}

// GetZapLevel maps the level name, falling back to info.
func (c *Config) GetZapLevel() zapcore.Level {
	if level, exists := c.options.LevelMap[c.options.Level]; exists {
		return level
	}
	return zapcore.InfoLevel
}

// IsConsoleEnabled reports whether entries go to stderr.
func (c *Config) IsConsoleEnabled() bool {
	return c.options.ToConsole
}

// GetFilePath returns the rotated log file path.
func (c *Config) GetFilePath() string {
	return c.options.FilePath
}

// GetMaxSize returns the max file size in MB.
func (c *Config) GetMaxSize() int {
	return c.options.MaxSize
}

// GetMaxBackups returns the number of rotated files kept.
func (c *Config) GetMaxBackups() int {
	return c.options.MaxBackups
}

// GetMaxAge returns the retention in days.
func (c *Config) GetMaxAge() int {
	return c.options.MaxAge
}

// IsCompressionEnabled reports whether rotated files are gzipped.
func (c *Config) IsCompressionEnabled() bool {
	return c.options.Compress
}

// IsCallerEnabled reports whether caller info is attached.
func (c *Config) IsCallerEnabled() bool {
	return c.options.EnableCaller
}

// IsStacktraceEnabled reports whether error entries carry a stacktrace.
func (c *Config) IsStacktraceEnabled() bool {
	return c.options.EnableStacktrace
}

// CreateFileEncoder returns the JSON encoder used for log files.
func (c *Config) CreateFileEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
	})
}

// CreateConsoleEncoder returns the human readable encoder used on stderr.
func (c *Config) CreateConsoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05.000"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
	})
}
