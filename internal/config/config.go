package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config is the server configuration
type Config struct {
	Port             int           `yaml:"port"`
	StorageType      string        `yaml:"storage_type"`
	RedisURL         string        `yaml:"redis_url"`
	NATSURL          string        `yaml:"nats_url"`
	TurnTimeout      time.Duration `yaml:"turn_timeout"`
	ReconnectTimeout time.Duration `yaml:"reconnect_timeout"`
	HistoryLimit     int           `yaml:"history_limit"`
	LogLevel         string        `yaml:"log_level"`
	CORSOrigins      []string      `yaml:"cors_origins"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Port:             8080,
		StorageType:      StorageMemory,
		TurnTimeout:      60 * time.Second,
		ReconnectTimeout: 30 * time.Second,
		HistoryLimit:     50,
		LogLevel:         "info",
		CORSOrigins:      []string{"*"},
	}
}

// Load builds the configuration from the defaults, the optional YAML file
// at path, and then the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.Port = getEnvAsInt("PORT", cfg.Port)
	cfg.StorageType = getEnv("STORAGE_TYPE", cfg.StorageType)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.TurnTimeout = getEnvAsDuration("TURN_TIMEOUT", cfg.TurnTimeout)
	cfg.ReconnectTimeout = getEnvAsDuration("RECONNECT_TIMEOUT", cfg.ReconnectTimeout)
	cfg.HistoryLimit = getEnvAsInt("HISTORY_LIMIT", cfg.HistoryLimit)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted
func (c Config) Validate() error {
	switch c.StorageType {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	default:
		return fmt.Errorf("invalid storage type %q: must be 'memory' or 'redis'", c.StorageType)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("invalid history limit %d", c.HistoryLimit)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("45s") or a bare number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
