package ratelimiter

// ServerMajorVersion exposes INFO parsing for tests.
var ServerMajorVersion = serverMajorVersion
