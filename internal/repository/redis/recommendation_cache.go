package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"opportunityHub/internal/cache"

	"github.com/redis/go-redis/v9"
)

// RecommendationCacheRepository is the shared (remote) cache tier,
// storing computed recommendation lists as JSON values with the
// per-kind TTL decided by the caller.
type RecommendationCacheRepository struct {
	client *redis.Client
}

func NewRecommendationCacheRepository(client *redis.Client) *RecommendationCacheRepository {
	return &RecommendationCacheRepository{
		client: client,
	}
}

func (r *RecommendationCacheRepository) Get(ctx context.Context, key string) (*cache.Entry, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache entry from Redis: %w", err)
	}

	var entry cache.Entry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}

	return &entry, nil
}

func (r *RecommendationCacheRepository) Set(ctx context.Context, key string, entry cache.Entry, ttl time.Duration) error {
	jsonData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := r.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store cache entry in Redis: %w", err)
	}

	return nil
}
