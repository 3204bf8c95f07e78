// Package post 帖子与内嵌评论接口
package post

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"contenthub/internal/apiserver/auth"
	"contenthub/internal/apiserver/httpapi"
	"contenthub/internal/apiserver/notification"
	"contenthub/internal/apiserver/policy"
	"contenthub/internal/shared/model"
	"contenthub/internal/shared/storage"
)

// Handler 帖子 HTTP 处理器
type Handler struct {
	store   storage.PostStore
	emitter *notification.Emitter
}

// NewHandler 创建帖子处理器
func NewHandler(store storage.PostStore, emitter *notification.Emitter) *Handler {
	return &Handler{store: store, emitter: emitter}
}

// RegisterRoutes 注册帖子与评论路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/posts", h.handleCreate)
	mux.HandleFunc("GET /api/v1/posts", h.handleList)
	mux.HandleFunc("GET /api/v1/posts/{id}", h.handleGet)
	mux.HandleFunc("PATCH /api/v1/posts/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /api/v1/posts/{id}", h.handleDelete)
	mux.HandleFunc("PATCH /api/v1/posts/{id}/upvote", h.handleUpvote)
	mux.HandleFunc("PATCH /api/v1/posts/{id}/downvote", h.handleDownvote)

	mux.HandleFunc("POST /api/v1/comments/{postId}/add", h.handleAddComment)
	mux.HandleFunc("PATCH /api/v1/comments/{postId}/{commentId}", h.handleUpdateComment)
	mux.HandleFunc("DELETE /api/v1/comments/{postId}/{commentId}", h.handleDeleteComment)
}

type createPostRequest struct {
	Title     string             `json:"title"`
	Content   string             `json:"content"`
	Category  model.PostCategory `json:"category"`
	Tags      []string           `json:"tags"`
	Images    []string           `json:"images"`
	IsPremium bool               `json:"is_premium"`
}

func (p *createPostRequest) validate() []httpapi.ErrorItem {
	var items []httpapi.ErrorItem
	if strings.TrimSpace(p.Title) == "" {
		items = append(items, httpapi.ErrorItem{Path: "title", Message: "title is required"})
	}
	if strings.TrimSpace(p.Content) == "" {
		items = append(items, httpapi.ErrorItem{Path: "content", Message: "content is required"})
	}
	if !p.Category.Valid() {
		items = append(items, httpapi.ErrorItem{Path: "category", Message: "unknown category"})
	}
	return items
}

// handleCreate 发帖，分类必须在封闭枚举内
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, appErr := auth.RequireUser(r)
	if appErr != nil {
		httpapi.WriteError(w, appErr)
		return
	}

	var req createPostRequest
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

	now := time.Now().UTC()
	post := &model.Post{
		ID:        model.NewID("post"),
		UserID:    user.ID,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Category:  req.Category,
		Tags:      req.Tags,
		Images:    req.Images,
		IsPremium: req.IsPremium,
		Comments:  []model.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreatePost(r.Context(), post); err != nil {
		log.Printf("[post] create failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}

	log.Printf("[post] created: %s by %s", post.ID, user.ID)
	httpapi.WriteData(w, http.StatusCreated, "post created", post)
}

// handleList 帖子列表：搜索/过滤/分页，meta 携带总数
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := model.PostQuery{
		Search: qs.Get("search"),
		UserID: qs.Get("author"),
	}
	if v := qs.Get("category"); v != "" {
		cat := model.PostCategory(v)
		if !cat.Valid() {
			httpapi.WriteError(w, httpapi.BadRequest("unknown category"))
			return
		}
		q.Category = cat
	}
	if v := qs.Get("premium"); v != "" {
		premium, err := strconv.ParseBool(v)
		if err != nil {
			httpapi.WriteError(w, httpapi.BadRequest("premium must be true or false"))
			return
		}
		q.Premium = &premium
	}
	q.Page, _ = strconv.Atoi(qs.Get("page"))
	q.Limit, _ = strconv.Atoi(qs.Get("limit"))
	q.Normalize()

	posts, total, err := h.store.ListPosts(r.Context(), q)
	if err != nil {
		log.Printf("[post] list failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}
	httpapi.WriteDataMeta(w, http.StatusOK, "posts retrieved", posts,
		&httpapi.Meta{Page: q.Page, Limit: q.Limit, Total: total})
}

// handleGet 帖子详情
//
// 浏览计数：仅登录且非作者的读者计一次。
// 高级帖子门禁：作者、管理员、会员未过期可读；
// 匿名 401，已登录但无有效会员 403。
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.store.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpapi.WriteError(w, httpapi.NotFound("post not found"))
			return
		}
		log.Printf("[post] get failed: %v", err)
		httpapi.WriteError(w, httpapi.Internal("internal error"))
		return
	}

	user := auth.GetAuthUser(r.Context())
	if post.IsPremium {
		if user == nil {
			httpapi.WriteError(w, httpapi.Unauthorized("authentication required for premium content"))
			return
		}
		if !policy.CanReadPremium(user.ID, user.Role, post.UserID, user.MembershipActive(time.Now().UTC())) {
			httpapi.WriteError(w, httpapi.Forbidden("active membership required"))
			return
		}
	}

	if user != nil && user.ID != post.UserID {
		if err := h.store.IncrementViews(r.Context(), post.ID); err != nil {
			log.Printf("[post] increment views failed: %v", err)
		} else {
			post.Views++
		}
	}

	httpapi.WriteData(w, http.StatusOK, "post retrieved", post)
}

// handleUpdate 编辑帖子，仅限作者
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, appErr := auth.RequireUser(r)
	if appErr != nil {
		httpapi.WriteError(w, appErr)
		return
	}

	post, err := h.store.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		httpapi.WriteError(w, httpapi.FromStorage(err, "post not found", "post not found"))
		return
	}
	if !policy.IsOwner(user.ID, post.UserID) {
		httpapi.WriteError(w, httpapi.Forbidden("only the author can edit this post"))
		return
	}

	var upd model.PostUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		httpapi.WriteError(w, httpapi.BadRequest("invalid request body"))
		return
	}
	if upd.Category != nil && !upd.Category.Valid() {
		httpapi.WriteError(w, httpapi.BadRequest("unknown category"))
		return
	}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		httpapi.WriteError(w, httpapi.BadRequest("title must not be empty"))
		return
	}

	updated, err := h.store.UpdatePost(r.Context(), post.ID, upd)
	if err != nil {
		httpapi.WriteError(w, httpapi.FromStorage(err, "post not found", "post not found"))
		return
	}
	httpapi.WriteData(w, http.StatusOK, "post updated", updated)
}

// handleDelete 删除帖子，作者或管理员
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, appErr := auth.RequireUser(r)
	if appErr != nil {
		httpapi.WriteError(w, appErr)
		return
	}

	post, err := h.store.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		httpapi.WriteError(w, httpapi.FromStorage(err, "post not found", "post not found"))
		return
	}
	if !policy.CanModify(user.ID, user.Role, post.UserID) {
		httpapi.WriteError(w, httpapi.Forbidden("only the author or an admin can delete this post"))
		return
	}

	if err := h.store.DeletePost(r.Context(), post.ID); err != nil {
		httpapi.WriteError(w, httpapi.FromStorage(err, "post not found", "post not found"))
		return
	}
	log.Printf("[post] deleted: %s by %s", post.ID, user.ID)
	httpapi.WriteData(w, http.StatusOK, "post deleted", nil)
}

// handleUpvote 顶：自身计数 +1，对侧计数大于零时 -1
func (h *Handler) handleUpvote(w http.ResponseWriter, r *http.Request) {
	h.handleVote(w, r, true)
}

// handleDownvote 踩，语义与顶对称
func (h *Handler) handleDownvote(w http.ResponseWriter, r *http.Request) {
	h.handleVote(w, r, false)
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request, upvote bool) {
	if _, appErr := auth.RequireUser(r); appErr != nil {
		httpapi.WriteError(w, appErr)
		return
	}

	post, err := h.store.VotePost(r.Context(), r.PathValue("id"), upvote)
	if err != nil {
		httpapi.WriteError(w, httpapi.FromStorage(err, "post not found", "post not found"))
		return
	}
	httpapi.WriteData(w, http.StatusOK, "vote recorded", post)
}

type commentRequest struct {
	Text string `json:"text"`
}

// handleAddComment 添加评论，并通知帖子作者
func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	user, appErr := auth.RequireUser(r)
	if appErr != nil {
		httpapi.WriteError(w, appErr)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		httpapi.WriteError(w, httpapi.BadRequest("text is required"))
		return
	}

	comment := model.Comment{
		ID:        model.NewID("cmt"),
		UserID:    user.ID,
		Text:      strings.TrimSpace(req.Text),
		CreatedAt: time.Now().UTC(),
	}
	post, err := h.store.AddComment(r.Context(), r.PathValue("postId"), comment)
	if err != nil {
		httpapi.WriteError(w, httpapi.FromStorage(err, "post not found", "post not found"))
		return
	}

	if post.UserID != user.ID {
		h.emitter.Emit(r.Context(), post.UserID, user.ID,
			model.NotificationComment, user.Email+" commented on your post", "/posts/"+post.ID)
	}
	httpapi.WriteData(w, http.StatusCreated, "comment added", post)
}

// handleUpdateComment 编辑评论，仅限评论作者
func (h *Handler) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	user, appErr := auth.RequireUser(r)
	if appErr != nil {
		httpapi.WriteError(w, appErr)
		return
	}

	postID, commentID := r.PathValue("postId"), r.PathValue("commentId")
	post, err := h.store.GetPost(r.Context(), postID)
	if err != nil {
		httpapi.WriteError(w, httpapi.FromStorage(err, "post not found", "post not found"))
		return
	}
	comment := findComment(post, commentID)
	if comment == nil {
		httpapi.WriteError(w, httpapi.NotFound("comment not found"))
		return
	}
	if !policy.IsOwner(user.ID, comment.UserID) {
		httpapi.WriteError(w, httpapi.Forbidden("only the comment author can edit it"))
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		httpapi.WriteError(w, httpapi.BadRequest("text is required"))
		return
	}

	updated, err := h.store.UpdateComment(r.Context(), postID, commentID, strings.TrimSpace(req.Text))
	if err != nil {
		httpapi.WriteError(w, httpapi.FromStorage(err, "comment not found", "comment not found"))
		return
	}
	httpapi.WriteData(w, http.StatusOK, "comment updated", updated)
}

// handleDeleteComment 删除评论，评论作者或管理员
func (h *Handler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	user, appErr := auth.RequireUser(r)
	if appErr != nil {
		httpapi.WriteError(w, appErr)
		return
	}

	postID, commentID := r.PathValue("postId"), r.PathValue("commentId")
	post, err := h.store.GetPost(r.Context(), postID)
	if err != nil {
		httpapi.WriteError(w, httpapi.FromStorage(err, "post not found", "post not found"))
		return
	}
	comment := findComment(post, commentID)
	if comment == nil {
		httpapi.WriteError(w, httpapi.NotFound("comment not found"))
		return
	}
	if !policy.CanModify(user.ID, user.Role, comment.UserID) {
		httpapi.WriteError(w, httpapi.Forbidden("only the comment author or an admin can delete it"))
		return
	}

	updated, err := h.store.RemoveComment(r.Context(), postID, commentID)
	if err != nil {
		httpapi.WriteError(w, httpapi.FromStorage(err, "comment not found", "comment not found"))
		return
	}
	httpapi.WriteData(w, http.StatusOK, "comment deleted", updated)
}

func findComment(post *model.Post, commentID string) *model.Comment {
	for i := range post.Comments {
		if post.Comments[i].ID == commentID {
			return &post.Comments[i]
		}
	}
	return nil
}
