// Package stats 平台统计汇总接口
package stats

import (
	"log"
	"net/http"

	"contenthub/internal/apiserver/auth"
	"contenthub/internal/apiserver/httpapi"
	"contenthub/internal/shared/cache"
	"contenthub/internal/shared/storage"
)

// Handler 统计 HTTP 处理器
type Handler struct {
	store storage.StatsStore
	cache cache.StatsCache
}

// NewHandler 创建统计处理器
func NewHandler(store storage.StatsStore, c cache.StatsCache) *Handler {
	return &Handler{store: store, cache: c}
}

// RegisterRoutes 注册统计路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/statistics/overall", auth.AdminOnly(h.handleOverall))
}

// handleOverall 全站统计汇总，快照缓存 60 秒
//
// 缓存故障只记日志并回源，统计接口不因 Redis 不可用而失败。
func (h *Handler) handleOverall(w http.ResponseWriter, r *http.Request) {
	if cached, err := h.cache.GetOverallStats(r.Context()); err != nil {
		log.Printf("[stats] cache read failed: %v", err)
	} else if cached != nil {
		httpapi.WriteData(w, http.StatusOK, "statistics retrieved", cached)
		return
	}

	overall, err := h.store.OverallStats(r.Context())
	if err != nil {
		log.Printf("[stats] aggregate failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}

	if err := h.cache.SetOverallStats(r.Context(), overall); err != nil {
		log.Printf("[stats] cache write failed: %v", err)
	}
	httpapi.WriteData(w, http.StatusOK, "statistics retrieved", overall)
}
