package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	RedisClient *redis.Client
	ctx         = context.Background()
)

// InitRedis initializes Redis connection
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "localhost:6379"
	}

	RedisClient = redis.NewClient(&redis.Options{
		Addr:         redisURL,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RedisClient.Ping(pingCtx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

// CloseRedis closes Redis connection
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// IsRedisAvailable checks if Redis is connected
func IsRedisAvailable() bool {
	if RedisClient == nil {
		return false
	}
	_, err := RedisClient.Ping(ctx).Result()
	return err == nil
}

// ==================== CACHE KEYS ====================

const (
	// Per-user statistics caching
	PlaythroughStatsPrefix = "stats:playthroughs:" // stats:playthroughs:<user_id>
	CollectionStatsPrefix  = "stats:collection:"   // stats:collection:<user_id>

	// Rate limiting
	RateLimitPrefix = "ratelimit:" // ratelimit:<user_id or ip>
)

// ==================== GENERIC CACHE OPERATIONS ====================

// Set stores any value in cache with TTL
func Set(key string, value interface{}, ttl time.Duration) error {
	if !IsRedisAvailable() {
		return fmt.Errorf("redis not available")
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return RedisClient.Set(ctx, key, data, ttl).Err()
}

// Get retrieves value from cache
func Get(key string, dest interface{}) error {
	if !IsRedisAvailable() {
		return fmt.Errorf("redis not available")
	}

	val, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return fmt.Errorf("cache miss")
	}
	if err != nil {
		return fmt.Errorf("failed to get value: %w", err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return nil
}

// Delete removes key from cache
func Delete(key string) error {
	if !IsRedisAvailable() {
		return nil
	}
	return RedisClient.Del(ctx, key).Err()
}

// ==================== STATISTICS CACHING ====================

// GetPlaythroughStats returns cached playthrough stats for a user
func GetPlaythroughStats(userID string, dest interface{}) error {
	return Get(PlaythroughStatsPrefix+userID, dest)
}

// SetPlaythroughStats caches playthrough stats for 5 minutes
func SetPlaythroughStats(userID string, stats interface{}) error {
	return Set(PlaythroughStatsPrefix+userID, stats, 5*time.Minute)
}

// GetCollectionStats returns cached collection stats for a user
func GetCollectionStats(userID string, dest interface{}) error {
	return Get(CollectionStatsPrefix+userID, dest)
}

// SetCollectionStats caches collection stats for 5 minutes
func SetCollectionStats(userID string, stats interface{}) error {
	return Set(CollectionStatsPrefix+userID, stats, 5*time.Minute)
}

// InvalidateUserStats removes both stats caches for a user. Called after any
// mutation that changes what the stats endpoints would report.
func InvalidateUserStats(userID string) error {
	if err := Delete(PlaythroughStatsPrefix + userID); err != nil {
		return err
	}
	return Delete(CollectionStatsPrefix + userID)
}

// ==================== RATE LIMITING ====================

// CheckRateLimit implements fixed-window rate limiting per key
func CheckRateLimit(key string, maxRequests int, window time.Duration) (bool, int, error) {
	if !IsRedisAvailable() {
		return true, maxRequests, nil // Allow if Redis unavailable
	}

	fullKey := RateLimitPrefix + key

	count, err := RedisClient.Get(ctx, fullKey).Int()
	if err == redis.Nil {
		// First request - initialize counter
		if err := RedisClient.Set(ctx, fullKey, 1, window).Err(); err != nil {
			return false, 0, err
		}
		return true, maxRequests - 1, nil
	}
	if err != nil {
		return false, 0, err
	}

	if count >= maxRequests {
		return false, 0, nil
	}

	newCount, err := RedisClient.Incr(ctx, fullKey).Result()
	if err != nil {
		return false, 0, err
	}
	return true, maxRequests - int(newCount), nil
}
