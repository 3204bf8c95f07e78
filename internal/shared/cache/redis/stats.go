// Package redis 统计快照缓存操作
package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"contenthub/internal/shared/cache"
	"contenthub/internal/shared/model"
)

// GetOverallStats 读取统计快照；未命中返回 (nil, nil)
func (s *Store) GetOverallStats(ctx context.Context) (*model.OverallStats, error) {
	data, err := s.client.Get(ctx, cache.KeyOverallStats).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var stats model.OverallStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SetOverallStats 写入统计快照，带 TTL
func (s *Store) SetOverallStats(ctx context.Context, stats *model.OverallStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cache.KeyOverallStats, data, cache.TTLOverallStats).Err()
}

var _ cache.StatsCache = (*Store)(nil)
