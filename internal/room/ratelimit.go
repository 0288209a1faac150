package room

import "time"

// Result is the outcome of a rate limit check. When Allowed is false,
// BlockedUntil carries the moment the block expires.
type Result struct {
	Allowed      bool
	BlockedUntil time.Time
}

// bucket is the per-user token state. Tokens stay in [0, maxTokens];
// while blockedUntil is in the future no tokens are consumed or refilled.
type bucket struct {
	tokens       int
	lastRefillAt time.Time
	blockedUntil time.Time
}

// RateLimiter is a per-user token bucket with temporary blocking: a user who
// exhausts the bucket is locked out for a fixed duration instead of merely
// waiting for the next token. State is partitioned by userId.
//
// It is not safe for concurrent use on its own; the owning room's event loop
// is the sole caller.
type RateLimiter struct {
	maxTokens     int
	refillEvery   time.Duration
	blockDuration time.Duration
	users         map[string]*bucket

	now func() time.Time
}

// NewRateLimiter creates a limiter granting maxTokens per window, with an
// exhaustion penalty of blockDuration.
func NewRateLimiter(maxTokens int, window, blockDuration time.Duration) *RateLimiter {
	if maxTokens < 1 {
		maxTokens = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &RateLimiter{
		maxTokens:     maxTokens,
		refillEvery:   window / time.Duration(maxTokens),
		blockDuration: blockDuration,
		users:         make(map[string]*bucket),
		now:           time.Now,
	}
}

// Check consumes one token for userID and reports whether the action is
// allowed. It never errors: a denied check is a policy outcome, not a fault.
func (l *RateLimiter) Check(userID string) Result {
	now := l.now()

	b, ok := l.users[userID]
	if !ok {
		// First sight: the check itself costs one token.
		l.users[userID] = &bucket{tokens: l.maxTokens - 1, lastRefillAt: now}
		return Result{Allowed: true}
	}

	if !b.blockedUntil.IsZero() {
		if now.Before(b.blockedUntil) {
			return Result{BlockedUntil: b.blockedUntil}
		}
		// Block expired: start over with a full bucket.
		b.blockedUntil = time.Time{}
		b.tokens = l.maxTokens
		b.lastRefillAt = now
	}

	if refills := int(now.Sub(b.lastRefillAt) / l.refillEvery); refills > 0 {
		b.tokens += refills
		if b.tokens > l.maxTokens {
			b.tokens = l.maxTokens
		}
		b.lastRefillAt = b.lastRefillAt.Add(time.Duration(refills) * l.refillEvery)
	}

	if b.tokens <= 0 {
		b.blockedUntil = now.Add(l.blockDuration)
		return Result{BlockedUntil: b.blockedUntil}
	}

	b.tokens--
	return Result{Allowed: true}
}
