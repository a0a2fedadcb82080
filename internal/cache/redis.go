package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/yusakuma/feed-service/internal/domain"
)

const defaultTTL = 10 * time.Minute

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func buildKey(viewerID string, limit int) string {
	return fmt.Sprintf("feed:viewer:%s:limit:%d", viewerID, limit)
}

// Get a viewer's cached feed ordering
func (c *Cache) Get(ctx context.Context, viewerID string, limit int) ([]domain.RankedVideo, bool, error) {
	key := buildKey(viewerID, limit)
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get feed ordering from cache: %w", err)
	}

	var ranked []domain.RankedVideo
	if err := json.Unmarshal([]byte(val), &ranked); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal feed ordering %s: %w", key, err)
	}

	return ranked, true, nil
}

// Store a viewer's feed ordering in cache
func (c *Cache) Set(ctx context.Context, viewerID string, limit int, ranked []domain.RankedVideo) error {
	key := buildKey(viewerID, limit)
	val, err := json.Marshal(ranked)
	if err != nil {
		return fmt.Errorf("failed to marshal feed ordering: %w", err)
	}

	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set feed ordering in cache: %w", err)
	}

	return nil
}

// Clear viewer cache: used when the affinity profile changes
func (c *Cache) ClearViewerCache(ctx context.Context, viewerID string) error {
	pattern := fmt.Sprintf("feed:viewer:%s:limit:*", viewerID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Ping connectivity
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
