package auth

import (
	"log"
	"net/http"
	"strings"

	"contenthub/internal/apiserver/httpapi"
	"contenthub/internal/shared/model"
	"contenthub/internal/shared/storage"
)

// 免认证路由白名单（前缀匹配）
var publicPrefixes = []string{
	"/api/v1/auth/register",
	"/api/v1/auth/login",
	"/health",
	"/metrics",
}

// 免认证路由精确匹配（方法 + 路径）
var publicExact = map[string]bool{
	"POST /api/v1/payments/webhook": true, // 网关回调走签名校验，不走 JWT
}

func isPublicRoute(method, path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return publicExact[method+" "+path]
}

// 可匿名路由：带令牌则注入用户，不带则按匿名处理
// （帖子列表与详情对未登录用户开放，高级内容门禁在处理器内判定）
func isOptionalAuthRoute(method, path string) bool {
	if method != "GET" {
		return false
	}
	return path == "/api/v1/posts" || (strings.HasPrefix(path, "/api/v1/posts/") &&
		strings.Count(path, "/") == 4)
}

// Middleware 创建 JWT 认证中间件
//
// 令牌只携带身份，权限状态每次从存储层重新加载：
// 封禁立即生效，会员过期立即生效，与令牌签发时间无关。
func Middleware(store storage.UserStore, cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicRoute(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			optional := isOptionalAuthRoute(r.Method, r.URL.Path)

			// 提取 Bearer Token
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if optional {
					next.ServeHTTP(w, r)
					return
				}
				httpapi.WriteError(w, httpapi.Unauthorized("missing authorization header"))
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				httpapi.WriteError(w, httpapi.Unauthorized("invalid authorization header"))
				return
			}

			claims, err := cfg.ParseToken(parts[1])
			if err != nil {
				log.Printf("[auth] token parse error: %v", err)
				httpapi.WriteError(w, httpapi.Unauthorized("invalid or expired token"))
				return
			}

			// 每次请求重新加载用户，令牌里的角色/会员快照不可信
			user, err := store.GetUserByID(r.Context(), claims.Subject)
			if err != nil {
				httpapi.WriteError(w, httpapi.Unauthorized("invalid or expired token"))
				return
			}
			if user.IsBlocked {
				httpapi.WriteError(w, httpapi.Forbidden("account is blocked"))
				return
			}

			authUser := &AuthUser{
				ID:    user.ID,
				Email: user.Email,
				Role:  user.Role,
			}
			if user.Membership != nil {
				exp := user.Membership.ExpiresAt
				authUser.MembershipExpiresAt = &exp
			}

			next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), authUser)))
		})
	}
}

// AdminOnly 管理员专属路由中间件
func AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthUser(r.Context())
		if user == nil || user.Role != model.UserRoleAdmin {
			httpapi.WriteError(w, httpapi.Forbidden("admin access required"))
			return
		}
		next(w, r)
	}
}

// RequireUser 读取当前用户，匿名请求返回 401 错误
func RequireUser(r *http.Request) (*AuthUser, *httpapi.AppError) {
	user := GetAuthUser(r.Context())
	if user == nil {
		return nil, httpapi.Unauthorized("authentication required")
	}
	return user, nil
}
