package domain

import "time"

// ==== WebSocket Constants ====

// MaxMessageSize is the maximum allowed WebSocket message size in bytes
const MaxMessageSize = 4096

// ==== History Constants ====

const (
	// DefaultHistoryCapacity bounds the in-memory transcript per room
	DefaultHistoryCapacity = 100

	// DefaultReplayLimit is how many retained events a new connection receives
	DefaultReplayLimit = 20
)

// ==== Rate Limit Constants ====

const (
	// DefaultMaxTokens is the per-user token bucket capacity
	DefaultMaxTokens = 30

	// DefaultRateWindow is the time to refill a full bucket
	DefaultRateWindow = 60 * time.Second

	// DefaultBlockDuration is how long an exhausted user stays blocked
	DefaultBlockDuration = 60 * time.Second
)

// ==== HTTP Rate Limit Constants ====

const (
	// DefaultRateLimitAPI is the default rate limit for API endpoints (requests/sec)
	DefaultRateLimitAPI = 10

	// DefaultRateLimitWS is the default rate limit for WebSocket upgrades (req/sec)
	DefaultRateLimitWS = 5
)
