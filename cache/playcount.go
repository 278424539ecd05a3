package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Play counts live in Redis as plain integer keys. The catalog store remains
// the source of truth; these counters only spare the full history scan on the
// hot read path. Every operation is a no-op when Redis is not configured.

const playCountTTL = time.Hour

func playCountKey(songID int64) string {
	return fmt.Sprintf("playcount:%d", songID)
}

// IncrPlayCount bumps the cached counter for a song if one is already primed.
// A key that was never primed stays absent so the next read recomputes it
// from the history log.
func IncrPlayCount(ctx context.Context, songID int64) error {
	if RedisClient == nil {
		return nil
	}

	key := playCountKey(songID)
	exists, err := RedisClient.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check play count key: %w", err)
	}
	if exists == 0 {
		return nil
	}
	if err := RedisClient.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to increment play count: %w", err)
	}
	return nil
}

// GetPlayCount returns the cached counter for a song. The second return value
// reports whether a counter was present.
func GetPlayCount(ctx context.Context, songID int64) (int, bool, error) {
	if RedisClient == nil {
		return 0, false, nil
	}

	val, err := RedisClient.Get(ctx, playCountKey(songID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get play count: %w", err)
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt play count value %q: %w", val, err)
	}
	return count, true, nil
}

// SetPlayCount primes the cached counter for a song.
func SetPlayCount(ctx context.Context, songID int64, count int) error {
	if RedisClient == nil {
		return nil
	}

	if err := RedisClient.Set(ctx, playCountKey(songID), count, playCountTTL).Err(); err != nil {
		return fmt.Errorf("failed to set play count: %w", err)
	}
	return nil
}
