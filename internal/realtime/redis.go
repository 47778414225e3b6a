package realtime

import (
	"github.com/redis/go-redis/v9"

	"github.com/gigfolio/gigfolio_be/internal/logger"
)

// NewRedis creates a new Redis client
func NewRedis(addr, password string) *redis.Client {
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	logger.Info("redis client created", "addr", addr)
	return rdb
}
