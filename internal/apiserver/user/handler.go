// Package user 用户目录与社交图谱接口
package user

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"

	"contenthub/internal/apiserver/auth"
	"contenthub/internal/apiserver/httpapi"
	"contenthub/internal/apiserver/notification"
	"contenthub/internal/shared/model"
	"contenthub/internal/shared/storage"
)

// Handler 用户 HTTP 处理器
type Handler struct {
	store   storage.UserStore
	emitter *notification.Emitter
}

// NewHandler 创建用户处理器
func NewHandler(store storage.UserStore, emitter *notification.Emitter) *Handler {
	return &Handler{store: store, emitter: emitter}
}

// RegisterRoutes 注册用户路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/users", auth.AdminOnly(h.handleList))
	mux.HandleFunc("GET /api/v1/users/{email}", h.handleProfile)
	mux.HandleFunc("PATCH /api/v1/users/me", h.handleUpdateMe)
	mux.HandleFunc("PATCH /api/v1/users/follow", h.handleFollow)
	mux.HandleFunc("PATCH /api/v1/users/unfollow", h.handleUnfollow)
	mux.HandleFunc("DELETE /api/v1/users/{id}", auth.AdminOnly(h.handleDelete))
	mux.HandleFunc("PATCH /api/v1/users/{id}/block", auth.AdminOnly(h.handleSetBlocked))
}

// buildProfile 组装档案响应：关注列表 ID 展开为用户摘要
func (h *Handler) buildProfile(r *http.Request, u *model.User) (*model.UserProfile, error) {
	followers, err := h.store.ListUserSummaries(r.Context(), u.Followers)
	if err != nil {
		return nil, err
	}
	following, err := h.store.ListUserSummaries(r.Context(), u.Following)
	if err != nil {
		return nil, err
	}
	return &model.UserProfile{User: u, Followers: followers, Following: following}, nil
}

// handleList 列出用户（管理员），支持 role 过滤
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	role := model.UserRole(r.URL.Query().Get("role"))
	if role != "" && role != model.UserRoleAdmin && role != model.UserRoleUser {
		httpapi.WriteError(w, httpapi.BadRequest("role must be admin or user"))
		return
	}

	users, err := h.store.ListUsers(r.Context(), role)
	if err != nil {
		log.Printf("[user] list failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}
	httpapi.WriteData(w, http.StatusOK, "users retrieved", users)
}

// handleProfile 按邮箱取用户档案，关注列表展开为摘要
func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(r.PathValue("email"))
	u, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpapi.WriteError(w, httpapi.NotFound("user not found"))
			return
		}
		log.Printf("[user] get profile failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}

	profile, err := h.buildProfile(r, u)
	if err != nil {
		log.Printf("[user] build profile failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}
	httpapi.WriteData(w, http.StatusOK, "profile retrieved", profile)
}

// handleUpdateMe 更新本人资料，邮箱与他人重复返回 409
func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user, appErr := auth.RequireUser(r)
	if appErr != nil {
		httpapi.WriteError(w, appErr)
		return
	}

	var upd model.UserProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		httpapi.WriteError(w, httpapi.BadRequest("invalid request body"))
		return
	}
	if upd.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*upd.Email))
		if _, err := mail.ParseAddress(normalized); err != nil {
			httpapi.WriteError(w, httpapi.BadRequest("a valid email is required"))
			return
		}
		upd.Email = &normalized
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		httpapi.WriteError(w, httpapi.BadRequest("name must not be empty"))
		return
	}

	updated, err := h.store.UpdateUserProfile(r.Context(), user.ID, upd)
	if err != nil {
		httpapi.WriteError(w, httpapi.FromStorage(err,
			"user not found", "email is already registered"))
		return
	}
	httpapi.WriteData(w, http.StatusOK, "profile updated", updated)
}

type followRequest struct {
	TargetUserID string `json:"targetUserId"`
}

// handleFollow 关注：成对边在事务内写入，重复关注 409
func (h *Handler) handleFollow(w http.ResponseWriter, r *http.Request) {
	h.handleEdge(w, r, true)
}

// handleUnfollow 取消关注，语义与关注对称；边不存在 409
func (h *Handler) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	h.handleEdge(w, r, false)
}

func (h *Handler) handleEdge(w http.ResponseWriter, r *http.Request, follow bool) {
	user, appErr := auth.RequireUser(r)
	if appErr != nil {
		httpapi.WriteError(w, appErr)
		return
	}

	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetUserID == "" {
		httpapi.WriteError(w, httpapi.BadRequest("targetUserId is required"))
		return
	}
	// 自关注先于一切变更被拒绝
	if req.TargetUserID == user.ID {
		httpapi.WriteError(w, httpapi.BadRequest("cannot follow yourself"))
		return
	}

	var err error
	if follow {
		err = h.store.FollowUser(r.Context(), user.ID, req.TargetUserID)
	} else {
		err = h.store.UnfollowUser(r.Context(), user.ID, req.TargetUserID)
	}
	if err != nil {
		if follow {
			httpapi.WriteError(w, httpapi.FromStorage(err, "user not found", "already following this user"))
		} else {
			httpapi.WriteError(w, httpapi.FromStorage(err, "user not found", "not following this user"))
		}
		return
	}

	if follow {
		h.emitter.Emit(r.Context(), req.TargetUserID, user.ID,
			model.NotificationFollow, user.Email+" started following you", "/users/"+user.Email)
	}

	// 返回刷新后的本人档案
	fresh, err := h.store.GetUserByID(r.Context(), user.ID)
	if err != nil {
		log.Printf("[user] reload after follow failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}
	profile, err := h.buildProfile(r, fresh)
	if err != nil {
		log.Printf("[user] build profile failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}

	msg := "followed successfully"
	if !follow {
		msg = "unfollowed successfully"
	}
	httpapi.WriteData(w, http.StatusOK, msg, profile)
}

// handleDelete 硬删除用户（管理员），不级联帖子与评论
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		httpapi.WriteError(w, httpapi.FromStorage(err, "user not found", "user not found"))
		return
	}
	log.Printf("[user] deleted: %s", id)
	httpapi.WriteData(w, http.StatusOK, "user deleted", nil)
}

type blockRequest struct {
	Blocked bool `json:"blocked"`
}

// handleSetBlocked 设置封禁标志（管理员）
func (h *Handler) handleSetBlocked(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, httpapi.BadRequest("invalid request body"))
		return
	}

	id := r.PathValue("id")
	if err := h.store.SetUserBlocked(r.Context(), id, req.Blocked); err != nil {
		httpapi.WriteError(w, httpapi.FromStorage(err, "user not found", "user not found"))
		return
	}
	log.Printf("[user] blocked=%v: %s", req.Blocked, id)
	httpapi.WriteData(w, http.StatusOK, "user updated", nil)
}
