package config

import (
	"log"
	"os"
	"time"
)

// CacheConfig controls the Redis response cache wrapped around the
// read-only dashboard endpoints. With Enabled false, or no Redis
// client at runtime, the middleware is a pass-through.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration // lifetime of a cached response
	Prefix       string        // key namespace in Redis
	MaxBodyBytes int64         // responses larger than this are not cached
}

// LoadCacheConfig builds a CacheConfig from environment variables,
// falling back to defaults suited to the dashboard endpoints.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      boolDefault("CACHE_ENABLED", true),
		TTL:          durDefault("CACHE_TTL", 30*time.Second),
		Prefix:       getenvDefault("CACHE_PREFIX", "cache"),
		MaxBodyBytes: int64(intDefault("CACHE_MAX_BODY_BYTES", 1<<20)),
	}
}

func boolDefault(key string, def bool) bool {
	switch os.Getenv(key) {
	case "":
		return def
	case "1", "true", "TRUE", "yes", "on":
		return true
	case "0", "false", "FALSE", "no", "off":
		return false
	}
	return def
}

func durDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, v)
	}
	return d
}
