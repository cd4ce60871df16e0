package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig configures the Redis token bucket placed in front of the
// API.  Bookings get their own, tighter bucket (BookingCapacity) because
// creation takes a row lock on the activity.
type RateLimitConfig struct {
	Enabled         bool
	Capacity        int
	BookingCapacity int
	RefillTokens    int
	RefillInterval  time.Duration
	TTL             time.Duration
	KeyStrategy     string
	Prefix          string
	Debug           bool
}

func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:         envBool("RATE_LIMIT_ENABLED", true),
		Capacity:        envInt("RATE_LIMIT_CAPACITY", 60),
		BookingCapacity: envInt("RATE_LIMIT_BOOKING_CAPACITY", 10),
		RefillTokens:    envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval:  envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:             envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:     envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
		Prefix:          envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:           envBool("RATE_LIMIT_DEBUG", false),
	}
	if b := envInt("RATE_LIMIT_BURST", -1); b > 0 {
		def.Capacity = b
	}
	if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		def.RefillTokens = 1
		def.RefillInterval = every
	}
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.BookingCapacity < 1 {
		def.BookingCapacity = 1
	}
	if def.RefillTokens < 1 {
		def.RefillTokens = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = time.Second
	}
	minTTL := 5 * def.RefillInterval
	if def.TTL < minTTL {
		def.TTL = minTTL
	}
	return def
}

// WithCapacity returns a copy of the config with a different bucket size
// and a key prefix of its own so the buckets do not share state.
func (c RateLimitConfig) WithCapacity(capacity int, suffix string) RateLimitConfig {
	c.Capacity = capacity
	c.Prefix = c.Prefix + ":" + suffix
	return c
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
