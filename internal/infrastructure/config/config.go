package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/coalesceio/resilient/internal/infrastructure/resilience"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	Retry     RetryConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds the admin HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RetryConfig holds the process-wide retry defaults. Individual calls can
// still override any field per operation.
type RetryConfig struct {
	MaxAttempts      int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	BaseDelay        time.Duration `envconfig:"RETRY_BASE_DELAY" default:"1s"`
	MaxDelay         time.Duration `envconfig:"RETRY_MAX_DELAY" default:"30s"`
	Timeout          time.Duration `envconfig:"RETRY_TIMEOUT" default:"10s"`
	BreakerThreshold int           `envconfig:"BREAKER_THRESHOLD" default:"5"`
	BreakerCooldown  time.Duration `envconfig:"BREAKER_COOLDOWN" default:"60s"`
}

// RateLimitConfig holds admin surface rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8090",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level: "info",
		},
		Retry: RetryConfig{
			MaxAttempts:      3,
			BaseDelay:        time.Second,
			MaxDelay:         30 * time.Second,
			Timeout:          10 * time.Second,
			BreakerThreshold: 5,
			BreakerCooldown:  60 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// RetryDefaults converts the loaded retry settings into the resilience
// package's per-call configuration shape.
func (c *Config) RetryDefaults() resilience.Config {
	defaults := resilience.DefaultConfig()

	return defaults.Merge(&resilience.Config{
		MaxAttempts:      c.Retry.MaxAttempts,
		BaseDelay:        c.Retry.BaseDelay,
		MaxDelay:         c.Retry.MaxDelay,
		Timeout:          c.Retry.Timeout,
		BreakerThreshold: c.Retry.BreakerThreshold,
		BreakerCooldown:  c.Retry.BreakerCooldown,
	})
}
