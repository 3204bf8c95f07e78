package notification

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"contenthub/internal/apiserver/auth"
	"contenthub/internal/apiserver/httpapi"
	"contenthub/internal/shared/model"
	"contenthub/internal/shared/storage"
)

// Handler 通知 HTTP 处理器
type Handler struct {
	store storage.NotificationStore
}

// NewHandler 创建通知处理器
func NewHandler(store storage.NotificationStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册通知路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/notifications", auth.AdminOnly(h.handleCreate))
	mux.HandleFunc("GET /api/v1/notifications", h.handleList)
	mux.HandleFunc("PATCH /api/v1/notifications/{id}/read", h.handleMarkRead)
	mux.HandleFunc("DELETE /api/v1/notifications/{id}", h.handleDelete)
}

type createRequest struct {
	UserID   string                 `json:"user_id"`
	SenderID string                 `json:"sender_id"`
	Type     model.NotificationType `json:"type"`
	Message  string                 `json:"message"`
	Link     string                 `json:"link"`
}

func (c *createRequest) validate() []httpapi.ErrorItem {
	var items []httpapi.ErrorItem
	if c.UserID == "" {
		items = append(items, httpapi.ErrorItem{Path: "user_id", Message: "user_id is required"})
	}
	if !c.Type.Valid() {
		items = append(items, httpapi.ErrorItem{Path: "type", Message: "unknown notification type"})
	}
	if c.Message == "" {
		items = append(items, httpapi.ErrorItem{Path: "message", Message: "message must not be empty"})
	}
	return items
}

// handleCreate 管理员定向投递通知（如广播公告）
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, httpapi.BadRequest("invalid request body"))
		return
	}
	if items := req.validate(); len(items) > 0 {
		httpapi.WriteError(w, &httpapi.AppError{
			Status:  http.StatusBadRequest,
			Message: "validation failed",
			Items:   items,
		})
		return
	}

	n := &model.Notification{
		ID:        model.NewID("ntf"),
		UserID:    req.UserID,
		SenderID:  req.SenderID,
		Type:      req.Type,
		Message:   req.Message,
		Link:      req.Link,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.CreateNotification(r.Context(), n); err != nil {
		log.Printf("[notification] create failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}
	httpapi.WriteData(w, http.StatusCreated, "notification created", n)
}

// handleList 列出当前用户的通知，支持 read 过滤与分页
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, appErr := auth.RequireUser(r)
	if appErr != nil {
		httpapi.WriteError(w, appErr)
		return
	}

	q := model.NotificationQuery{}
	if v := r.URL.Query().Get("read"); v != "" {
		read, err := strconv.ParseBool(v)
		if err != nil {
			httpapi.WriteError(w, httpapi.BadRequest("read must be true or false"))
			return
		}
		q.Read = &read
	}
	q.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	q.Normalize()

	list, err := h.store.ListNotifications(r.Context(), user.ID, q)
	if err != nil {
		log.Printf("[notification] list for %s failed: %v", user.ID, err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}
	httpapi.WriteData(w, http.StatusOK, "notifications retrieved", list)
}

// handleMarkRead 未读→已读；重复标记返回 409
func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, appErr := auth.RequireUser(r)
	if appErr != nil {
		httpapi.WriteError(w, appErr)
		return
	}

	n, err := h.store.MarkNotificationRead(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		httpapi.WriteError(w, httpapi.FromStorage(err,
			"notification not found", "notification is already read"))
		return
	}
	httpapi.WriteData(w, http.StatusOK, "notification marked as read", n)
}

// handleDelete 删除通知，仅限接收者本人
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, appErr := auth.RequireUser(r)
	if appErr != nil {
		httpapi.WriteError(w, appErr)
		return
	}

	if err := h.store.DeleteNotification(r.Context(), r.PathValue("id"), user.ID); err != nil {
		httpapi.WriteError(w, httpapi.FromStorage(err,
			"notification not found", "notification not found"))
		return
	}
	httpapi.WriteData(w, http.StatusOK, "notification deleted", nil)
}
