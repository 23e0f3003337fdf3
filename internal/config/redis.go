package config

import (
	"context"
	"crypto/tls"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds the Redis client backing rate limiting and the
// response cache.  REDIS_URL takes priority (redis:// or rediss:// form);
// otherwise the client is assembled from REDIS_HOST/REDIS_PORT (or
// REDIS_ADDR), REDIS_PASSWORD, REDIS_DB and REDIS_TLS.  A failed ping
// returns nil: Redis is optional here and callers degrade to
// pass-through middleware.
func NewRedisClient() *redis.Client {
	client := redis.NewClient(redisOptions())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}

func redisOptions() *redis.Options {
	if url := os.Getenv("REDIS_URL"); url != "" {
		if opts, err := redis.ParseURL(url); err == nil {
			return opts
		}
	}

	addr := getenv("REDIS_ADDR", "localhost:6379")
	if host := os.Getenv("REDIS_HOST"); host != "" {
		addr = host + ":" + getenv("REDIS_PORT", "6379")
	}
	opts := &redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       atoi(getenv("REDIS_DB", "0")),
	}
	if v := os.Getenv("REDIS_TLS"); v == "true" || v == "1" {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return opts
}
