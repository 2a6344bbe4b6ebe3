package config

// This file defines a Redis client constructor for the application. Redis is
// used for distributed rate limiting on the authentication endpoints. The
// client parameters are loaded from environment variables. If the connection
// fails during startup, the function returns nil and callers degrade
// gracefully by disabling rate limiting.

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client using environment variables.
// Supported variables:
//
//	REDIS_ADDR               – host:port shorthand (takes precedence)
//	REDIS_HOST / REDIS_PORT  – hostname and port of the Redis server
//	REDIS_PASSWORD           – optional password
//	REDIS_DB                 – database number (default 0)
//
// A short ping verifies the connection; on failure nil is returned so the
// server can start without Redis.
func NewRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		host := os.Getenv("REDIS_HOST")
		port := os.Getenv("REDIS_PORT")
		if host == "" {
			return nil
		}
		if port == "" {
			port = "6379"
		}
		addr = host + ":" + port
	}

	db := 0
	if s := os.Getenv("REDIS_DB"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			db = n
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis: ping %s failed: %v; rate limiting disabled", addr, err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}
