package cache

import (
	"context"

	"contenthub/internal/shared/model"
)

// NoOpCache 空操作缓存（未配置 Redis 或测试时使用）
type NoOpCache struct{}

// NewNoOpCache 创建 NoOpCache 实例
func NewNoOpCache() *NoOpCache { return &NoOpCache{} }

func (c *NoOpCache) GetOverallStats(ctx context.Context) (*model.OverallStats, error) {
	return nil, nil
}

func (c *NoOpCache) SetOverallStats(ctx context.Context, stats *model.OverallStats) error {
	return nil
}

var _ StatsCache = (*NoOpCache)(nil)
