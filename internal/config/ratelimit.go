package config

import "time"

// RateLimitConfig tunes the Redis token bucket in front of /auth/login.
// Capacity is the burst size; RefillTokens are added every
// RefillInterval. TTL bounds how long an idle bucket lives in Redis.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// LoadRateLimitConfig builds a RateLimitConfig from environment
// variables. Values are clamped so a misconfigured bucket still
// refills and eventually expires.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        boolDefault("RATE_LIMIT_ENABLED", true),
		Capacity:       intDefault("RATE_LIMIT_CAPACITY", 10),
		RefillTokens:   intDefault("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: durDefault("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            durDefault("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         getenvDefault("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if min := 5 * cfg.RefillInterval; cfg.TTL < min {
		cfg.TTL = min
	}
	return cfg
}
