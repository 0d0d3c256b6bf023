package logging

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelNone disables logging entirely.
const LevelNone = "none"

// ErrUnknownLevel is returned for a level name outside the supported set.
var ErrUnknownLevel = errors.New("unknown log level")

// Levels lists the accepted level names in increasing severity.
var Levels = []string{LevelNone, "debug", "info", "warning", "error", "critical"}

// Logger wraps zap.Logger with convenience methods.
type Logger struct {
	*zap.Logger
}

// Config defines logger configuration.
type Config struct {
	Level       string // one of Levels; "warn" is accepted as well
	Development bool
	OutputPaths []string
}

// DefaultConfig returns the command-line default: logging off, JSON to
// stderr. Stdout is reserved for the local copy of the relayed output.
func DefaultConfig() Config {
	return Config{
		Level:       LevelNone,
		Development: false,
		OutputPaths: []string{"stderr"},
	}
}

// DevelopmentConfig returns development logger configuration.
func DevelopmentConfig() Config {
	return Config{
		Level:       "debug",
		Development: true,
		OutputPaths: []string{"stderr"},
	}
}

// New creates a new logger with the provided configuration.
func New(cfg Config) (*Logger, error) {
	if isNone(cfg.Level) {
		return &Logger{Logger: zap.NewNop()}, nil
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zapCfg := zap.Config{
		Level: zap.NewAtomicLevelAt(level),
		// Development stays off in zap itself so "critical" (DPanic) logs
		// instead of panicking.
		Development:       false,
		Encoding:          encodingFormat(cfg.Development),
		EncoderConfig:     encoderConfig(cfg.Development, colorEnabled(outputs)),
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.Development,
		DisableStacktrace: !cfg.Development,
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Logger{Logger: logger}, nil
}

// NewDefault creates a logger with default configuration.
func NewDefault() *Logger {
	logger, err := New(DefaultConfig())
	if err != nil {
		// Fallback to no-op logger
		return &Logger{Logger: zap.NewNop()}
	}
	return logger
}

// NewDevelopment creates a logger with development configuration.
func NewDevelopment() *Logger {
	logger, err := New(DevelopmentConfig())
	if err != nil {
		return &Logger{Logger: zap.NewNop()}
	}
	return logger
}

// ParseLevel converts a level name to a zap level. "warning" maps to warn
// and "critical" to dpanic.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warning", "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "critical":
		return zapcore.DPanicLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
}

// ValidLevel reports whether level is accepted by New.
func ValidLevel(level string) bool {
	if isNone(level) {
		return true
	}
	_, err := ParseLevel(level)
	return err == nil
}

func isNone(level string) bool {
	return strings.EqualFold(strings.TrimSpace(level), LevelNone)
}

// encodingFormat returns encoding format based on environment.
func encodingFormat(development bool) string {
	if development {
		return "console"
	}
	return "json"
}

// colorEnabled reports whether every output is an interactive terminal.
func colorEnabled(outputs []string) bool {
	for _, out := range outputs {
		var f *os.File
		switch out {
		case "stderr":
			f = os.Stderr
		case "stdout":
			f = os.Stdout
		default:
			return false
		}
		if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
			return false
		}
	}
	return true
}

// encoderConfig returns encoder configuration based on environment.
func encoderConfig(development, color bool) zapcore.EncoderConfig {
	if development {
		levelEncoder := zapcore.CapitalLevelEncoder
		if color {
			levelEncoder = zapcore.CapitalColorLevelEncoder
		}
		return zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			CallerKey:      "C",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "M",
			StacktraceKey:  "S",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    levelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}
	}

	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}
