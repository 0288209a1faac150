// Package config loads service configuration from environment variables.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration.
type Config struct {
	// Server
	Port      string `env:"PORT,       default=8080"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	// Security
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=http://localhost:8080"`

	// Per-user message throttling (room level)
	RateLimitMaxTokens     int           `env:"RATE_LIMIT_MAX_TOKENS,     default=30"`
	RateLimitWindow        time.Duration `env:"RATE_LIMIT_WINDOW,         default=60s"`
	RateLimitBlockDuration time.Duration `env:"RATE_LIMIT_BLOCK_DURATION, default=60s"`

	// Per-IP request throttling (HTTP level, requests/sec)
	RateLimitAPI int `env:"RATE_LIMIT_API, default=10"`
	RateLimitWS  int `env:"RATE_LIMIT_WS,  default=5"`

	// History
	HistoryCapacity        int  `env:"HISTORY_CAPACITY,         default=100"`
	HistoryReplayLimit     int  `env:"HISTORY_REPLAY_LIMIT,     default=20"`
	HistoryPersistPresence bool `env:"HISTORY_PERSIST_PRESENCE, default=false"`

	// WebSocket
	MaxMessageSize int `env:"MAX_MESSAGE_SIZE, default=4096"`
	SendBufferSize int `env:"SEND_BUFFER_SIZE, default=256"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// OriginAllowed reports whether origin may open a connection. An empty
// origin (same-origin request) is always allowed.
func (c *Config) OriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}
