package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	fiberredis "github.com/gofiber/storage/redis"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/SaaSKit/internal/pkg/env"
)

// Redis logical databases used by the application.
const (
	DBCache    = 0
	DBSessions = 1
	DBLimiter  = 2
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// SetupCache initializes the connection to the Redis compatible cache server
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       DBCache,
	})

	// Test the connection
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Warnf("Could not connect to cache: %v", err)
	} else {
		log.Infof("Successfully connected to cache: %s", pong)
	}
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// NewStorage returns a fiber storage on logical database db of the cache
// server, for sessions and rate limiting.
func NewStorage(db int) *fiberredis.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if c := GetClient(); c != nil {
		if h, p, err := net.SplitHostPort(c.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := c.Options().Password; p != "" {
			password = p
		}
	}

	return fiberredis.New(fiberredis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: db,
		Reset:    false,
	})
}

// Ping checks the cache connection.
func Ping(c context.Context) error {
	if err := GetClient().Ping(c).Err(); err != nil {
		return fmt.Errorf("cache ping: %w", err)
	}
	return nil
}

// Set stores a value in the cache with the given key and expiration time
func Set(c context.Context, key string, value interface{}, expiration time.Duration) error {
	return GetClient().Set(c, key, value, expiration).Err()
}

// Exists reports whether key is present in the cache
func Exists(c context.Context, key string) (bool, error) {
	n, err := GetClient().Exists(c, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
