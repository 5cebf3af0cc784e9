package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"mithril/internal/dto"
)

// CostSummaryCache keeps the latest BOM cost summary for the read-only
// reporting path. Recalculation invalidates the entry; a miss falls through
// to the database.
type CostSummaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCostSummaryCache(addr, password string, db int, ttl time.Duration) (*CostSummaryCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &CostSummaryCache{rdb: rdb, ttl: ttl}, nil
}

func (c *CostSummaryCache) key(bomID int64) string {
	return fmt.Sprintf("bom:costs:%d", bomID)
}

func (c *CostSummaryCache) Get(ctx context.Context, bomID int64) (*dto.BomCostSummary, error) {
	data, err := c.rdb.Get(ctx, c.key(bomID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var summary dto.BomCostSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *CostSummaryCache) Set(ctx context.Context, bomID int64, summary dto.BomCostSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(bomID), data, c.ttl).Err()
}

func (c *CostSummaryCache) Invalidate(ctx context.Context, bomID int64) error {
	return c.rdb.Del(ctx, c.key(bomID)).Err()
}

func (c *CostSummaryCache) Close() error {
	return c.rdb.Close()
}
