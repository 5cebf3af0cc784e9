package cache

import (
	"context"

	"mithril/internal/dto"
)

// NopCostCache stands in when Redis is disabled; every read is a miss.
type NopCostCache struct{}

func (NopCostCache) Get(context.Context, int64) (*dto.BomCostSummary, error) {
	return nil, nil
}

func (NopCostCache) Set(context.Context, int64, dto.BomCostSummary) error {
	return nil
}

func (NopCostCache) Invalidate(context.Context, int64) error {
	return nil
}
