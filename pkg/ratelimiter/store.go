package ratelimiter

import (
	"context"
	"time"
)

// Store persists bucket state. Implementations must apply ConsumeTokens
// atomically per key.
type Store interface {
	// ConsumeTokens refills the bucket for elapsed intervals and then takes
	// tokens if enough are available. A negative remaining value means the
	// request is denied; a denied request leaves the bucket untouched.
	// Consuming zero tokens only reports the current state.
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)

	// Reset clears the rate limit state for the given key.
	Reset(ctx context.Context, key string) error
}
