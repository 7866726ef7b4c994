// Package config provides environment-based configuration for the dashboard.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the dashboard server.
type Config struct {
	// Server configuration
	Host string
	Port int

	// SGTRoot is the orchestration tool's root directory. State files live
	// under SGTRoot/.sgt and the append-only log at SGTRoot/sgt.log.
	SGTRoot string
	// SGTBin is the path to the sgt binary.
	SGTBin string

	// CommandTimeout bounds every sgt invocation.
	CommandTimeout time.Duration

	// Live channel configuration
	Live LiveConfig

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration

	// Logging
	LogLevel  slog.Level
	LogFormat string
}

// LiveConfig holds the per-connection timer settings of the live channel.
type LiveConfig struct {
	StatusInterval  time.Duration
	PingInterval    time.Duration
	PongGrace       time.Duration
	LogPollInterval time.Duration
}

// Log formats accepted by SGT_WEB_LOG_FORMAT.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := LoadWithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithDefaults loads configuration without validating it.
// Useful for tests and for applying flag overrides before validation.
func LoadWithDefaults() *Config {
	root := getEnv("SGT_ROOT", defaultRoot())

	return &Config{
		Host:            getEnv("SGT_WEB_HOST", "0.0.0.0"),
		Port:            getIntEnv("SGT_WEB_PORT", 4747),
		SGTRoot:         root,
		SGTBin:          getEnv("SGT_BIN", DefaultBin(root)),
		CommandTimeout:  getDurationEnv("SGT_CMD_TIMEOUT", 15*time.Second),
		ShutdownTimeout: getDurationEnv("SGT_WEB_SHUTDOWN_TIMEOUT", 10*time.Second),
		Live: LiveConfig{
			StatusInterval:  getDurationEnv("SGT_WEB_STATUS_INTERVAL", 3*time.Second),
			PingInterval:    getDurationEnv("SGT_WEB_PING_INTERVAL", 15*time.Second),
			PongGrace:       getDurationEnv("SGT_WEB_PONG_GRACE", 35*time.Second),
			LogPollInterval: getDurationEnv("SGT_WEB_LOG_POLL_INTERVAL", time.Second),
		},
		LogLevel:  getLevelEnv("SGT_WEB_LOG_LEVEL", slog.LevelInfo),
		LogFormat: strings.ToLower(getEnv("SGT_WEB_LOG_FORMAT", LogFormatText)),
	}
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("SGT_WEB_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.SGTRoot == "" {
		return fmt.Errorf("SGT_ROOT is required")
	}
	if c.SGTBin == "" {
		return fmt.Errorf("SGT_BIN is required")
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("SGT_CMD_TIMEOUT must be positive")
	}
	if c.Live.StatusInterval <= 0 {
		return fmt.Errorf("SGT_WEB_STATUS_INTERVAL must be positive")
	}
	if c.Live.PingInterval <= 0 {
		return fmt.Errorf("SGT_WEB_PING_INTERVAL must be positive")
	}
	if c.Live.PongGrace <= c.Live.PingInterval {
		return fmt.Errorf("SGT_WEB_PONG_GRACE (%s) must exceed SGT_WEB_PING_INTERVAL (%s)",
			c.Live.PongGrace, c.Live.PingInterval)
	}
	if c.Live.LogPollInterval <= 0 {
		return fmt.Errorf("SGT_WEB_LOG_POLL_INTERVAL must be positive")
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("SGT_WEB_LOG_FORMAT must be %q or %q, got %q", LogFormatText, LogFormatJSON, c.LogFormat)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StateDir returns the directory holding sgt's per-entity state files.
func (c *Config) StateDir() string {
	return filepath.Join(c.SGTRoot, ".sgt")
}

// LogPath returns the path of sgt's append-only log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.SGTRoot, "sgt.log")
}

// DefaultBin returns the binary location used when SGT_BIN is unset.
func DefaultBin(root string) string {
	return filepath.Join(root, "sgt")
}

func defaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, "sgt")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getLevelEnv(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(value)); err == nil {
			return level
		}
	}
	return defaultValue
}
