// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/（生产）、memstore/（测试）
//   - 初始化时通过依赖注入传入实现
//
// 各 HTTP 处理器只持有自己领域的窄接口（接口隔离），
// PersistentStore 仅在装配处（cmd/api-server、server.Handler）使用。
package storage

import (
	"context"

	"contenthub/internal/shared/model"
)

// UserStore 用户与社交图谱存储
type UserStore interface {
	// CreateUser 创建用户，邮箱重复时返回 ErrDuplicate
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// ListUsers 列出用户，role 为空时不过滤
	ListUsers(ctx context.Context, role model.UserRole) ([]*model.User, error)
	// ListUserSummaries 按 ID 批量取用户摘要（展开关注列表用）
	ListUserSummaries(ctx context.Context, ids []string) ([]model.UserSummary, error)
	// UpdateUserProfile 更新资料字段，邮箱与他人重复时返回 ErrDuplicate
	UpdateUserProfile(ctx context.Context, id string, upd model.UserProfileUpdate) (*model.User, error)
	SetUserBlocked(ctx context.Context, id string, blocked bool) error
	// SetUserMembership 整体覆盖会员快照（单次更新，由支付结算调用）
	SetUserMembership(ctx context.Context, id string, m *model.Membership) error
	// DeleteUser 硬删除，不级联帖子/评论
	DeleteUser(ctx context.Context, id string) error

	// FollowUser 成对边写入：target.followers += actor 且 actor.following += target，
	// 两个文档在同一事务内变更。任一用户不存在返回 ErrNotFound，
	// 边已存在返回 ErrConflict，事务整体回滚。
	FollowUser(ctx context.Context, actorID, targetID string) error
	// UnfollowUser 成对边删除，语义与 FollowUser 对称；边不存在返回 ErrConflict
	UnfollowUser(ctx context.Context, actorID, targetID string) error
}

// PostStore 帖子存储（内嵌评论按评论 ID 定位）
type PostStore interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	// ListPosts 返回当页帖子与总数
	ListPosts(ctx context.Context, q model.PostQuery) ([]*model.Post, int64, error)
	UpdatePost(ctx context.Context, id string, upd model.PostUpdate) (*model.Post, error)
	DeletePost(ctx context.Context, id string) error

	// IncrementViews 浏览数 +1（每次读取最多一次，调用方负责作者/登录判定）
	IncrementViews(ctx context.Context, id string) error
	// VotePost 选定计数器 +1；对侧计数器大于零时 -1（"改票"语义，无逐用户投票）
	VotePost(ctx context.Context, id string, upvote bool) (*model.Post, error)

	AddComment(ctx context.Context, postID string, c model.Comment) (*model.Post, error)
	UpdateComment(ctx context.Context, postID, commentID, text string) (*model.Post, error)
	RemoveComment(ctx context.Context, postID, commentID string) (*model.Post, error)
}

// PaymentStore 支付意向存储
type PaymentStore interface {
	CreatePayment(ctx context.Context, p *model.Payment) error
	GetPayment(ctx context.Context, id string) (*model.Payment, error)
	// SettlePayment 条件写：仅当记录仍为 pending 时应用 s 并返回 applied=true；
	// 已离开 pending 的记录不做任何变更，返回现状与 applied=false（幂等保障）。
	// 记录不存在返回 ErrNotFound。
	SettlePayment(ctx context.Context, id string, s model.PaymentSettlement) (p *model.Payment, applied bool, err error)
	// ListPaymentsByUser 按创建时间倒序
	ListPaymentsByUser(ctx context.Context, userID string) ([]*model.Payment, error)
}

// NotificationStore 通知存储
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, userID string, q model.NotificationQuery) ([]*model.Notification, error)
	// MarkNotificationRead 未读→已读；已读返回 ErrConflict，
	// 不存在或不属于该用户返回 ErrNotFound
	MarkNotificationRead(ctx context.Context, id, userID string) (*model.Notification, error)
	DeleteNotification(ctx context.Context, id, userID string) error
}

// StatsStore 统计只读汇总
type StatsStore interface {
	OverallStats(ctx context.Context) (*model.OverallStats, error)
}

// PersistentStore 持久化存储全量接口（装配处使用）
type PersistentStore interface {
	UserStore
	PostStore
	PaymentStore
	NotificationStore
	StatsStore

	Close() error
}
