package ratelimiter

import "errors"

var (
	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("ratelimiter: invalid configuration")

	// ErrInvalidTokenCount indicates that the requested token count is invalid.
	ErrInvalidTokenCount = errors.New("ratelimiter: invalid token count")

	// ErrStoreUnavailable indicates that the store backend could not be reached.
	ErrStoreUnavailable = errors.New("ratelimiter: store unavailable")

	// ErrUnexpectedStoreReply indicates the store returned data of an unknown shape.
	ErrUnexpectedStoreReply = errors.New("ratelimiter: unexpected store reply")

	// ErrUnsupportedRedisVersion indicates a Redis server too old for RedisStore.
	ErrUnsupportedRedisVersion = errors.New("ratelimiter: unsupported redis version")
)
