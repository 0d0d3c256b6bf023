package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/webcommand/internal/domain/relay"
	"github.com/GriffinCanCode/webcommand/internal/infrastructure/logging"
)

var (
	ErrNegativeWaitTime  = errors.New("wait time must be non-negative")
	ErrInvalidBufferSize = errors.New("buffer size must be positive")
	ErrInvalidLogLevel   = errors.New("invalid log level")
	ErrInvalidPort       = errors.New("port must be between 0 and 65535")
	ErrUnsupportedFormat = errors.New("unsupported config file format")
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Relay     RelayConfig     `yaml:"relay" toml:"relay"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
	Web       WebConfig       `yaml:"web" toml:"web"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `envconfig:"WEB_COMMAND_HOST" default:"localhost" yaml:"host" toml:"host"`
	Port int    `envconfig:"WEB_COMMAND_PORT" default:"8000" yaml:"port" toml:"port"`
}

// RelayConfig holds process supervision and broadcast configuration.
type RelayConfig struct {
	Command          []string `ignored:"true" yaml:"command" toml:"command"`
	WaitTime         int      `envconfig:"WEB_COMMAND_WAIT_TIME" default:"5" yaml:"wait_time" toml:"wait_time"`
	BufferSize       int      `envconfig:"WEB_COMMAND_BUFFER_SIZE" default:"10000" yaml:"buffer_size" toml:"buffer_size"`
	SuppressOutput   bool     `envconfig:"WEB_COMMAND_SUPPRESS_OUTPUT" default:"false" yaml:"suppress_output" toml:"suppress_output"`
	AllowClientInput bool     `envconfig:"WEB_COMMAND_ALLOW_CLIENT_INPUT" default:"false" yaml:"allow_client_input" toml:"allow_client_input"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"WEB_COMMAND_LOG_LEVEL" default:"none" yaml:"level" toml:"level"`
	Development bool   `envconfig:"WEB_COMMAND_LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// RateLimitConfig limits WebSocket upgrades per remote address.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"WEB_COMMAND_RATE_LIMIT_RPS" default:"5" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"WEB_COMMAND_RATE_LIMIT_BURST" default:"10" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"WEB_COMMAND_RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// WebConfig holds client asset and CORS configuration.
type WebConfig struct {
	StaticDir      string   `envconfig:"WEB_COMMAND_STATIC_DIR" yaml:"static_dir" toml:"static_dir"`
	AllowedOrigins []string `envconfig:"WEB_COMMAND_ALLOWED_ORIGINS" default:"*" yaml:"allowed_origins" toml:"allowed_origins"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile loads the environment and then overlays the file at path.
// Keys absent from the file keep their environment or default values.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}
	if err := cfg.Overlay(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Overlay decodes the YAML or TOML file at path on top of c.
func (c *Config) Overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8000,
		},
		Relay: RelayConfig{
			WaitTime:   5,
			BufferSize: relay.DefaultBufferSize,
		},
		Logging: LogConfig{
			Level: logging.LevelNone,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
			Enabled:           true,
		},
		Web: WebConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Validate checks the configuration before any resource is created.
func (c *Config) Validate() error {
	if c.Relay.WaitTime < 0 {
		return ErrNegativeWaitTime
	}
	if c.Relay.BufferSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBufferSize, c.Relay.BufferSize)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidLogLevel, c.Logging.Level, strings.Join(logging.Levels, ", "))
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// WaitDuration returns the restart wait as a duration.
func (c *Config) WaitDuration() time.Duration {
	return time.Duration(c.Relay.WaitTime) * time.Second
}

// LoggingConfig converts to the logger configuration.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Development = c.Logging.Development
	return cfg
}

// RelayOptions builds relay options. The local output is dropped when
// suppressed.
func (c *Config) RelayOptions(stdout io.Writer, stdin io.Reader) relay.Options {
	opts := relay.Options{
		Command:            c.Relay.Command,
		WaitTime:           c.WaitDuration(),
		BufferSize:         c.Relay.BufferSize,
		Input:              stdin,
		ForwardClientInput: c.Relay.AllowClientInput,
	}
	if !c.Relay.SuppressOutput {
		opts.Output = stdout
	}
	return opts
}
