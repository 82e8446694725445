// Package server provides configuration helpers that define runtime defaults,
// file and environment overrides, and rate-limiting parameters for the relay.
package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Tyrowin/roomchat/internal/room"
)

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int           `yaml:"burst"`
	RefillInterval time.Duration `yaml:"refill_interval"`
}

// RoomConfig controls room capacity defaults and broadcast fan-out.
type RoomConfig struct {
	DefaultLimit     int           `yaml:"default_limit"`
	DeliveryTimeout  time.Duration `yaml:"delivery_timeout"`
	BroadcastWorkers int           `yaml:"broadcast_workers"`
}

// Config holds the server configuration settings including security controls.
type Config struct {
	Env             string          `yaml:"env"`
	Port            string          `yaml:"port"`
	AllowedOrigins  []string        `yaml:"allowed_origins"`
	MaxMessageSize  int64           `yaml:"max_message_size"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	Rooms           RoomConfig      `yaml:"rooms"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
}

func defaultConfig() Config {
	return Config{
		Env:  "dev",
		Port: ":8080",
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxMessageSize: 512,
		RateLimit: RateLimitConfig{
			Burst:          5,
			RefillInterval: time.Second,
		},
		Rooms: RoomConfig{
			DefaultLimit:     room.DefaultLimit,
			DeliveryTimeout:  2 * time.Second,
			BroadcastWorkers: 16,
		},
		ShutdownTimeout: 10 * time.Second,
	}
}

// sanitize replaces unset or invalid values with defaults.
func (cfg Config) sanitize() Config {
	def := defaultConfig()

	if cfg.Env == "" {
		cfg.Env = def.Env
	}
	if cfg.Port == "" {
		cfg.Port = def.Port
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = def.RateLimit.Burst
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = def.RateLimit.RefillInterval
	}
	if cfg.Rooms.DefaultLimit <= 0 {
		cfg.Rooms.DefaultLimit = def.Rooms.DefaultLimit
	}
	if cfg.Rooms.DeliveryTimeout <= 0 {
		cfg.Rooms.DeliveryTimeout = def.Rooms.DeliveryTimeout
	}
	if cfg.Rooms.BroadcastWorkers <= 0 {
		cfg.Rooms.BroadcastWorkers = def.Rooms.BroadcastWorkers
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Falls back to default values if environment variables are not set.
func NewConfigFromEnv() *Config {
	cfg := defaultConfig()
	applyEnv(&cfg)
	sanitized := cfg.sanitize()
	return &sanitized
}

// LoadConfig builds the configuration from defaults, the YAML file at path
// (skipped when path is empty) and finally environment variables. ${VAR}
// references inside the file are expanded before parsing.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	applyEnv(&cfg)
	sanitized := cfg.sanitize()
	return &sanitized, nil
}

func applyEnv(cfg *Config) {
	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.Env = env
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	if maxSize := os.Getenv("MAX_MESSAGE_SIZE"); maxSize != "" {
		cfg.MaxMessageSize = parseMaxMessageSize(maxSize, cfg.MaxMessageSize)
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		cfg.RateLimit.Burst = parseIntValue(burst, cfg.RateLimit.Burst)
	}

	if interval := os.Getenv("RATE_LIMIT_REFILL_INTERVAL"); interval != "" {
		cfg.RateLimit.RefillInterval = parseSeconds(interval, cfg.RateLimit.RefillInterval)
	}

	if limit := os.Getenv("ROOM_DEFAULT_LIMIT"); limit != "" {
		cfg.Rooms.DefaultLimit = parseIntValue(limit, cfg.Rooms.DefaultLimit)
	}

	if timeout := os.Getenv("DELIVERY_TIMEOUT"); timeout != "" {
		cfg.Rooms.DeliveryTimeout = parseDuration(timeout, cfg.Rooms.DeliveryTimeout)
	}

	if workers := os.Getenv("BROADCAST_WORKERS"); workers != "" {
		cfg.Rooms.BroadcastWorkers = parseIntValue(workers, cfg.Rooms.BroadcastWorkers)
	}

	if timeout := os.Getenv("SHUTDOWN_TIMEOUT"); timeout != "" {
		cfg.ShutdownTimeout = parseDuration(timeout, cfg.ShutdownTimeout)
	}
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseMaxMessageSize(value string, defaultValue int64) int64 {
	if size, err := strconv.ParseInt(value, 10, 64); err == nil && size > 0 {
		return size
	}
	return defaultValue
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseSeconds(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

// parseDuration accepts Go duration strings ("750ms") or whole seconds.
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return parseSeconds(value, defaultValue)
}
