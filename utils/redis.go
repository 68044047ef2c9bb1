package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/calicantus/studio-cms-backend/config"
)

var (
	redisClient *redis.Client
	redisCtx    = context.Background()
)

// InitRedis connects the shared Redis client used for short-lived tokens
// (password resets) and cached values.
func InitRedis(cfg *config.Config) error {
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}

	redisClient = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := redisClient.Ping(redisCtx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	fmt.Println("✅ Redis connected:", addr)
	return nil
}

// SetToken stores a value with TTL
func SetToken(key, value string, ttl time.Duration) error {
	return redisClient.Set(redisCtx, key, value, ttl).Err()
}

// GetToken fetches a value; returns an error when missing or expired
func GetToken(key string) (string, error) {
	return redisClient.Get(redisCtx, key).Result()
}

// DeleteToken removes a key
func DeleteToken(key string) error {
	return redisClient.Del(redisCtx, key).Err()
}

// ===============================
// Calendar cache
// ===============================
//
// Calendar responses are cached under a version counter. Any schedule
// mutation bumps the counter, so stale windows simply stop being read
// and expire on their own. All helpers are no-ops when Redis is not
// connected (tests, minimal deployments).

const calendarVersionKey = "calendar:version"

func CalendarCacheVersion() int64 {
	if redisClient == nil {
		return 0
	}
	v, err := redisClient.Get(redisCtx, calendarVersionKey).Int64()
	if err != nil {
		return 0
	}
	return v
}

func BumpCalendarCache() {
	if redisClient == nil {
		return
	}
	_ = redisClient.Incr(redisCtx, calendarVersionKey).Err()
}

func GetCachedCalendar(key string) (string, bool) {
	if redisClient == nil {
		return "", false
	}
	val, err := redisClient.Get(redisCtx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func CacheCalendar(key, payload string, ttl time.Duration) {
	if redisClient == nil {
		return
	}
	_ = redisClient.Set(redisCtx, key, payload, ttl).Err()
}
