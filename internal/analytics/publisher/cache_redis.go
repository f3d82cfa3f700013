package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"gavel/internal/analytics/models"
	"gavel/internal/platform/redis"
	id "gavel/pkg/domain"
)

// RedisCache stores published profiles as JSON under a per-judge key.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func cacheKey(judgeID id.JudgeID) string {
	return "gavel:profile:" + judgeID.String()
}

func (c *RedisCache) Get(ctx context.Context, judgeID id.JudgeID) (*models.BiasProfile, error) {
	raw, err := c.client.Get(ctx, cacheKey(judgeID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile cache get: %w", err)
	}
	var profile models.BiasProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		// A corrupt entry is treated as a miss; the next Set overwrites it.
		return nil, fmt.Errorf("profile cache decode: %w", err)
	}
	return &profile, nil
}

func (c *RedisCache) Set(ctx context.Context, profile *models.BiasProfile, ttl time.Duration) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("profile cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(profile.JudgeID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("profile cache set: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, judgeID id.JudgeID) error {
	if err := c.client.Del(ctx, cacheKey(judgeID)).Err(); err != nil {
		return fmt.Errorf("profile cache delete: %w", err)
	}
	return nil
}
