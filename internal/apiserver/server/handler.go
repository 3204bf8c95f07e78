// Package server 路由配置与核心基础设施
//
// 本文件定义 HTTP API 路由，将请求分发到各领域独立包。
package server

import (
	"net/http"

	"contenthub/internal/apiserver/auth"
	"contenthub/internal/apiserver/httpapi"
	"contenthub/internal/apiserver/notification"
	"contenthub/internal/apiserver/payment"
	"contenthub/internal/apiserver/post"
	"contenthub/internal/apiserver/stats"
	"contenthub/internal/apiserver/user"
	"contenthub/internal/shared/cache"
	"contenthub/internal/shared/storage"
)

// Handler API Server 装配根
type Handler struct {
	store      storage.PersistentStore // Mongo 存储层（持久化业务数据）
	statsCache cache.StatsCache        // 统计快照缓存
	gateway    *payment.Gateway        // aamarpay 网关客户端
	authCfg    auth.Config             // JWT 配置
	metrics    *Metrics                // Prometheus 指标
}

// NewHandler 创建装配根
//
// statsCache 传 nil 时退化为 NoOpCache（未配置 Redis 的部署）。
func NewHandler(store storage.PersistentStore, statsCache cache.StatsCache, gw *payment.Gateway, authCfg auth.Config) *Handler {
	if statsCache == nil {
		statsCache = cache.NewNoOpCache()
	}
	return &Handler{
		store:      store,
		statsCache: statsCache,
		gateway:    gw,
		authCfg:    authCfg,
		metrics:    NewMetrics("api"),
	}
}

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health
//
// 认证 (Auth):
//   - POST /api/v1/auth/register
//   - POST /api/v1/auth/login
//
// 用户与社交图谱 (User):
//   - GET    /api/v1/users             - 列出用户（管理员）
//   - GET    /api/v1/users/{email}     - 用户档案
//   - PATCH  /api/v1/users/me          - 更新本人资料
//   - PATCH  /api/v1/users/follow      - 关注
//   - PATCH  /api/v1/users/unfollow    - 取消关注
//   - PATCH  /api/v1/users/{id}/block  - 封禁/解封（管理员）
//   - DELETE /api/v1/users/{id}        - 删除用户（管理员）
//
// 帖子与评论 (Post):
//   - POST   /api/v1/posts
//   - GET    /api/v1/posts
//   - GET    /api/v1/posts/{id}
//   - PATCH  /api/v1/posts/{id}
//   - DELETE /api/v1/posts/{id}
//   - PATCH  /api/v1/posts/{id}/upvote | /downvote
//   - POST   /api/v1/comments/{postId}/add
//   - PATCH  /api/v1/comments/{postId}/{commentId}
//   - DELETE /api/v1/comments/{postId}/{commentId}
//
// 支付 (Payment):
//   - POST /api/v1/payments/initiate
//   - POST /api/v1/payments/webhook   - 网关回调（签名校验，免 JWT）
//   - GET  /api/v1/payments/history
//
// 通知 (Notification):
//   - GET    /api/v1/notifications
//   - PATCH  /api/v1/notifications/{id}/read
//   - DELETE /api/v1/notifications/{id}
//
// 统计 (Statistics):
//   - GET /api/v1/statistics/overall（管理员）
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	emitter := notification.NewEmitter(h.store)

	auth.NewHandler(h.store, h.authCfg).RegisterRoutes(mux)
	user.NewHandler(h.store, emitter).RegisterRoutes(mux)
	post.NewHandler(h.store, emitter).RegisterRoutes(mux)
	payment.NewHandler(h.store, h.store, h.gateway, emitter).RegisterRoutes(mux)
	notification.NewHandler(h.store).RegisterRoutes(mux)
	stats.NewHandler(h.store, h.statsCache).RegisterRoutes(mux)

	// 外层先计指标再做认证，401/403 也会被统计
	var handler http.Handler = mux
	handler = auth.Middleware(h.store, h.authCfg)(handler)
	handler = h.metrics.MetricsMiddleware(handler)
	return handler
}

// Health 服务健康检查
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
