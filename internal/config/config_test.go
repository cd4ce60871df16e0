package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":                "test",
		"APP_PORT":               "8080",
		"DB_USER":                "app",
		"DB_HOST":                "localhost",
		"DB_PORT":                "3306",
		"DB_NAME":                "travel",
		"JWT_SECRET":             "secret",
		"ACCESS_TOKEN_TTL_MIN":   "15",
		"REFRESH_TOKEN_TTL_DAYS": "7",
		"BCRYPT_COST":            "4",
	} {
		t.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	setRequired(t)
	t.Setenv("SYSTEM_ACTOR_ID", "3")
	t.Setenv("ACCESS_LEGACY_TOKENS", "yes")
	t.Setenv("AMQP_URL", "amqp://broker:5672/")

	cfg := Load()
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.Equal(t, uint64(3), cfg.SystemActorID)
	assert.True(t, cfg.LegacyTokens)
	assert.False(t, cfg.AMQPEnabled)
	assert.Equal(t, "amqp://broker:5672/", cfg.AMQPURL)
	assert.Equal(t, "notifications.events", cfg.NotificationQueue)
	assert.Equal(t, time.Hour, cfg.NotificationCleanupEvery)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Local, cfg.Location)

	t.Setenv("APP_TIMEZONE", "UTC")
	assert.Equal(t, time.UTC, Load().Location)
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_BOOKING_CAPACITY", "0")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 5, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL, "ttl is raised to five refill intervals")
	assert.Equal(t, 1, cfg.BookingCapacity)

	b := cfg.WithCapacity(3, "bookings")
	assert.Equal(t, 3, b.Capacity)
	assert.Equal(t, "rl:bookings", b.Prefix)
	assert.Equal(t, "rl", cfg.Prefix)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "bogus")

	cfg := LoadCacheConfig()
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
	assert.Equal(t, 30*time.Second, cfg.TTL)
	assert.Equal(t, "catalog", cfg.Prefix)
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	assert.Equal(t, "cache:6380", RedisOptions().Addr)

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_DB", "2")
	opts := RedisOptions()
	assert.Equal(t, "redis:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Nil(t, opts.TLSConfig)
}
