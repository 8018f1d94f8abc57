package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"

	FormatConsole = "console"
	FormatText    = "text"
	FormatJSON    = "json"
)

// Config controls log level, console format and optional file output.
type Config struct {
	Level  string `toml:"level" yaml:"level" env:"LOG_LEVEL"`
	Format string `toml:"format" yaml:"format" env:"LOG_FORMAT"`
	File   string `toml:"file" yaml:"file" env:"LOG_FILE"`

	MaxSize    int  `toml:"max-size" yaml:"max-size"` // Megabytes
	MaxAge     int  `toml:"max-age" yaml:"max-age"`   // Days
	MaxBackups int  `toml:"max-backups" yaml:"max-backups"`
	Compress   bool `toml:"compress" yaml:"compress"`
}

// New creates a zap logger writing to stderr and, if configured, a rotated file.
func New(cfg Config) (*zap.Logger, error) {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg Config, console io.Writer) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	cores := []zapcore.Core{
		zapcore.NewCore(createEncoder(cfg.Format), zapcore.Lock(zapcore.AddSync(console)), level),
	}

	if cfg.File != "" {
		// File output is always JSON
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxAge:     cfg.MaxAge,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		})
		cores = append(cores, zapcore.NewCore(createEncoder(FormatJSON), fileWriter, level))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

// parseLevel converts a level name to a zapcore.Level. Empty means info.
func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case LevelDebug:
		return zap.DebugLevel, nil
	case LevelInfo, "":
		return zap.InfoLevel, nil
	case LevelWarn:
		return zap.WarnLevel, nil
	case LevelError:
		return zap.ErrorLevel, nil
	default:
		return zap.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

func createEncoder(format string) zapcore.Encoder {
	if format == FormatJSON {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	if format == FormatText {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}
