package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// MinRedisMajorVersion is the oldest Redis release RedisStore supports.
// consumeScript writes after calling TIME, which needs effects replication,
// the default since Redis 5.
const MinRedisMajorVersion = 5

// consumeScript mirrors MemoryStore.ConsumeTokens. Time comes from the Redis
// server so every instance sees the same clock.
var consumeScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)

local state = redis.call('HMGET', KEYS[1], 'tokens', 'last')
local tokens = tonumber(state[1])
local last = tonumber(state[2])
if tokens == nil or last == nil then
  tokens = capacity
  last = now
end

local intervals = math.min(math.floor((now - last) / interval), math.floor(capacity / rate) + 1)
if intervals > 0 then
  tokens = math.min(tokens + intervals * rate, capacity)
  last = now
end

local remaining = tokens - requested
if remaining >= 0 then
  tokens = remaining
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'last', last)
redis.call('PEXPIRE', KEYS[1], ttl)
return {remaining, last + interval}
`)

// RedisStore keeps buckets in Redis hashes so limits hold across instances.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix namespaces bucket keys. Defaults to "ratelimit:".
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		rs.prefix = prefix
	}
}

// NewRedisStore creates a store backed by client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	rs := &RedisStore{client: client, prefix: "ratelimit:"}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// ConsumeTokens implements Store.
func (rs *RedisStore) ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (int, time.Time, error) {
	interval := max(config.RefillInterval.Milliseconds(), 1)
	// Keep the key until the bucket would be full again, plus one interval.
	intervalsToFull := int64(config.Capacity/config.RefillRate + 1)
	ttl := interval * (intervalsToFull + 1)

	reply, err := consumeScript.Run(ctx, rs.client, []string{rs.prefix + key},
		config.Capacity, config.RefillRate, interval, tokens, ttl,
	).Int64Slice()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}
	if len(reply) != 2 {
		return 0, time.Time{}, ErrUnexpectedStoreReply
	}

	return int(reply[0]), time.UnixMilli(reply[1]), nil
}

// Reset implements Store.
func (rs *RedisStore) Reset(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.prefix+key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// CheckServerVersion fails with ErrUnsupportedRedisVersion when the server
// behind client is older than MinRedisMajorVersion.
func CheckServerVersion(ctx context.Context, client redis.UniversalClient) error {
	info, err := client.Info(ctx, "server").Result()
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	major, err := serverMajorVersion(info)
	if err != nil {
		return err
	}
	if major < MinRedisMajorVersion {
		return fmt.Errorf("%w: server is %d.x, need %d or later", ErrUnsupportedRedisVersion, major, MinRedisMajorVersion)
	}
	return nil
}

// serverMajorVersion reads redis_version from an INFO server reply.
func serverMajorVersion(info string) (int, error) {
	for line := range strings.SplitSeq(info, "\n") {
		v, ok := strings.CutPrefix(strings.TrimSpace(line), "redis_version:")
		if !ok {
			continue
		}
		major, _, _ := strings.Cut(v, ".")
		n, err := strconv.Atoi(major)
		if err != nil {
			return 0, fmt.Errorf("%w: redis_version %q", ErrUnexpectedStoreReply, v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: no redis_version in INFO", ErrUnexpectedStoreReply)
}
