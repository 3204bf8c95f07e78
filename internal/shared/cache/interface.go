// Package cache 定义缓存层抽象接口
//
// 目前仅缓存统计汇总快照；具体实现在子包 redis/ 中，
// 未配置 Redis 时使用 NoOpCache 直接透传到存储层。
package cache

import (
	"context"
	"time"

	"contenthub/internal/shared/model"
)

// Key 前缀与 TTL
const (
	KeyOverallStats = "contenthub:stats:overall"

	TTLOverallStats = 60 * time.Second
)

// StatsCache 统计快照缓存
type StatsCache interface {
	// GetOverallStats 缓存未命中时返回 (nil, nil)
	GetOverallStats(ctx context.Context) (*model.OverallStats, error)
	SetOverallStats(ctx context.Context, stats *model.OverallStats) error
}
