package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"contenthub/internal/apiserver/httpapi"
	"contenthub/internal/shared/model"
	"contenthub/internal/shared/storage"
)

// Handler 认证 HTTP 处理器
type Handler struct {
	store storage.UserStore
	cfg   Config
}

// NewHandler 创建认证处理器
func NewHandler(store storage.UserStore, cfg Config) *Handler {
	return &Handler{store: store, cfg: cfg}
}

// RegisterRoutes 注册认证路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", h.handleLogin)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *registerRequest) validate() []httpapi.ErrorItem {
	var items []httpapi.ErrorItem
	if strings.TrimSpace(r.Name) == "" {
		items = append(items, httpapi.ErrorItem{Path: "name", Message: "name is required"})
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		items = append(items, httpapi.ErrorItem{Path: "email", Message: "a valid email is required"})
	}
	if len(r.Password) < 6 {
		items = append(items, httpapi.ErrorItem{Path: "password", Message: "password must be at least 6 characters"})
	}
	return items
}

// handleRegister 注册新用户，邮箱已存在返回 409
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
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

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("[auth] hash password failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           model.NewID("user"),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         model.UserRoleUser,
		Followers:    []string{},
		Following:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			httpapi.WriteError(w, httpapi.Conflict("email is already registered"))
			return
		}
		log.Printf("[auth] create user failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}

	token, err := h.cfg.GenerateAccessToken(user, now)
	if err != nil {
		log.Printf("[auth] sign token failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}

	log.Printf("[auth] user registered: %s (%s)", user.ID, user.Email)
	httpapi.WriteData(w, http.StatusCreated, "registered successfully", loginResponse{Token: token, User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// handleLogin 登录：凭据错误一律 401，封禁用户 403
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, httpapi.BadRequest("invalid request body"))
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpapi.WriteError(w, httpapi.Unauthorized("invalid email or password"))
			return
		}
		log.Printf("[auth] lookup user failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}
	if !CheckPassword(user.PasswordHash, req.Password) {
		httpapi.WriteError(w, httpapi.Unauthorized("invalid email or password"))
		return
	}
	if user.IsBlocked {
		httpapi.WriteError(w, httpapi.Forbidden("account is blocked"))
		return
	}

	token, err := h.cfg.GenerateAccessToken(user, time.Now().UTC())
	if err != nil {
		log.Printf("[auth] sign token failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}

	log.Printf("[auth] user logged in: %s", user.ID)
	httpapi.WriteData(w, http.StatusOK, "logged in successfully", loginResponse{Token: token, User: user})
}
