package config

// Redis backs the token-bucket rate limiter and the catalog response cache.
// If the server cannot be reached at startup the constructor returns nil
// and both middlewares degrade to pass-through.

import (
	"context"
	"crypto/tls"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions builds client options from the environment:
//   REDIS_ADDR           – host:port shorthand
//   REDIS_HOST/PORT      – take precedence over REDIS_ADDR when both are set
//   REDIS_PASSWORD       – optional password
//   REDIS_DB             – database number (default 0)
//   REDIS_TLS            – enable TLS when truthy
func RedisOptions() *redis.Options {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	var tlsConf *tls.Config
	if envBool("REDIS_TLS", false) {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return &redis.Options{
		Addr:      addr,
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        envInt("REDIS_DB", 0),
		TLSConfig: tlsConf,
	}
}

// NewRedisClient connects with RedisOptions and pings the server with a
// short timeout.  It returns nil when the server is unreachable.
func NewRedisClient() *redis.Client {
	client := redis.NewClient(RedisOptions())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
