// Package ratelimiter provides token bucket rate limiting over a pluggable
// Store, plus HTTP middleware.
//
// Two stores ship with the package: MemoryStore for a single process and
// RedisStore (github.com/redis/go-redis/v9) when several instances must share
// limits. Bucket state is never global; callers construct a store and inject it.
//
// RedisStore requires Redis 5 or later: its Lua script reads the server clock
// with TIME before writing, which older servers only allow with script effects
// replication switched on. CheckServerVersion verifies this at startup.
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	login, err := ratelimiter.NewBucket(store, ratelimiter.PerWindow(10, 5*time.Minute))
//	if err != nil {
//		return err
//	}
//
//	r.With(ratelimiter.Middleware(login,
//		ratelimiter.Composite(ratelimiter.Static("login"), ratelimiter.ByIP()),
//	)).Post("/auth/login", h)
//
// The middleware sets X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset on every limited response, and Retry-After on denials.
// Denied requests do not drain the bucket further.
package ratelimiter
